package catalog

import (
	"context"

	"github.com/example/reframebot/internal/store"
)

// TrickCount is the size of the reframing curriculum.
const TrickCount = 14

// SeedTricks returns the built-in catalog of the 14 reframing tricks.
// IDs are stable and ordered from easiest to hardest to teach.
func SeedTricks() []store.Trick {
	return []store.Trick{
		{
			ID:         1,
			Name:       "Intent",
			Definition: "Redirect attention to the positive purpose or intention behind the belief instead of the belief itself.",
			Keywords:   store.StringList{"intent", "intention", "purpose", "goal", "trying to", "really want", "behind this"},
			Examples: store.ExampleSet{
				"everyday": {
					"What you really want is to feel safe before you commit.",
					"The purpose behind that thought is to protect you from disappointment.",
				},
				"business": {
					"Your intention here is to make sure the launch succeeds, not to block it.",
				},
			},
		},
		{
			ID:         2,
			Name:       "Redefine",
			Definition: "Replace one of the words in the belief with a word that means something similar but carries different implications.",
			Keywords:   store.StringList{"redefine", "another word", "really means", "call it", "rather than", "in other words", "not failure but"},
			Examples: store.ExampleSet{
				"everyday": {
					"It's not being too old, it's having more experience to build on.",
					"That isn't laziness, it's your mind asking for rest.",
				},
				"business": {
					"We didn't lose the deal, we learned what this market actually pays for.",
				},
			},
		},
		{
			ID:         3,
			Name:       "Consequence",
			Definition: "Direct attention to an effect of holding the belief, positive or negative, that the belief itself ignores.",
			Keywords:   store.StringList{"consequence", "leads to", "result", "if you keep", "will cause", "effect", "what happens when"},
			Examples: store.ExampleSet{
				"everyday": {
					"Believing that guarantees you never try, which is the only way to make it true.",
					"Holding on to that thought keeps you exactly where you don't want to be.",
				},
			},
		},
		{
			ID:         4,
			Name:       "Chunk Down",
			Definition: "Break the belief into smaller, specific pieces that change the generalization it rests on.",
			Keywords:   store.StringList{"specifically", "exactly", "which part", "what precisely", "every single", "always", "in detail"},
			Examples: store.ExampleSet{
				"everyday": {
					"Which new things exactly are too hard to learn? All of them, or one in particular?",
					"What specifically about learning feels old to you, the reading or the practicing?",
				},
			},
		},
		{
			ID:         5,
			Name:       "Chunk Up",
			Definition: "Generalize the belief to a larger category where the relationship it asserts no longer holds.",
			Keywords:   store.StringList{"bigger picture", "in general", "category", "all people", "everyone who", "broader", "humanity"},
			Examples: store.ExampleSet{
				"everyday": {
					"So no human being can change after a certain age? History disagrees.",
					"If age stopped all learning, languages would die with every generation.",
				},
			},
		},
		{
			ID:         6,
			Name:       "Analogy",
			Definition: "Offer a relationship that is analogous to the one in the belief and suggests a different conclusion.",
			Keywords:   store.StringList{"like", "just as", "similar to", "imagine", "it's as if", "the same way", "metaphor"},
			Examples: store.ExampleSet{
				"everyday": {
					"Saying that is like refusing to plant a tree because you missed spring.",
					"It's like a muscle: unused, it weakens, but it never loses the ability to grow.",
				},
			},
		},
		{
			ID:         7,
			Name:       "Model of the World",
			Definition: "Reevaluate the belief as one map among many, pointing to a different worldview where it does not apply.",
			Keywords:   store.StringList{"point of view", "perspective", "some people", "in other cultures", "from where", "not everyone", "your map"},
			Examples: store.ExampleSet{
				"everyday": {
					"In many cultures the elders are exactly the ones expected to keep learning.",
					"That's one way to see it. A beginner's mind sees the same fact as freedom.",
				},
			},
		},
		{
			ID:         8,
			Name:       "Reality Strategy",
			Definition: "Question how the person knows the belief is true, examining the evidence procedure behind it.",
			Keywords:   store.StringList{"how do you know", "evidence", "what tells you", "based on what", "who said", "where did you learn", "proof"},
			Examples: store.ExampleSet{
				"everyday": {
					"How exactly do you know that? Did you test it, or did someone hand it to you?",
					"What would you have to see to decide the opposite?",
				},
			},
		},
		{
			ID:         9,
			Name:       "Hierarchy of Criteria",
			Definition: "Appeal to a criterion more important than the one the belief is based on.",
			Keywords:   store.StringList{"more important", "matters more", "what counts", "value", "priority", "isn't it more", "above all"},
			Examples: store.ExampleSet{
				"everyday": {
					"Isn't staying curious more important than staying comfortable?",
					"What matters more, how fast you learn or that you keep growing at all?",
				},
			},
		},
		{
			ID:         10,
			Name:       "Change Frame Size",
			Definition: "Reevaluate the belief over a longer or shorter time frame, a larger or smaller group, or a wider or narrower context.",
			Keywords:   store.StringList{"in ten years", "looking back", "long run", "zoom out", "right now", "in a century", "for one day"},
			Examples: store.ExampleSet{
				"everyday": {
					"In ten years you'll wish you had started today, whatever your age was.",
					"For one afternoon, none of that matters. Just try the first page.",
				},
			},
		},
		{
			ID:         11,
			Name:       "Another Outcome",
			Definition: "Switch to a different outcome than the one the belief addresses, making the belief beside the point.",
			Keywords:   store.StringList{"the real question", "another outcome", "not about", "the issue is", "what if instead", "different goal", "beside the point"},
			Examples: store.ExampleSet{
				"everyday": {
					"The question isn't whether you're too old, it's whether learning would make your days richer.",
					"Speed isn't the point. Enjoying the process is.",
				},
			},
		},
		{
			ID:         12,
			Name:       "Counter Example",
			Definition: "Find an exception, a case where the generalized relationship in the belief does not hold.",
			Keywords:   store.StringList{"exception", "counter example", "what about", "there was a time", "never ever", "except", "remember when"},
			Examples: store.ExampleSet{
				"everyday": {
					"You learned to use a smartphone after forty. That's learning a new thing.",
					"What about the seventy-year-olds finishing marathons they started training for at sixty?",
				},
			},
		},
		{
			ID:         13,
			Name:       "Meta Frame",
			Definition: "Evaluate the belief itself, establishing a belief about the belief.",
			Keywords:   store.StringList{"belief about", "interesting that you", "where does that belief", "the fact that you think", "story you tell", "assumption", "who benefits"},
			Examples: store.ExampleSet{
				"everyday": {
					"Isn't it interesting that this belief shows up exactly when trying something would matter most?",
					"That's a belief designed to excuse you from effort. Who taught it to you?",
				},
			},
		},
		{
			ID:         14,
			Name:       "Apply to Self",
			Definition: "Apply the belief's own criterion or generalization to the belief itself.",
			Keywords:   store.StringList{"apply to itself", "by that logic", "that belief is", "isn't that statement", "the thought itself", "judge the belief", "turn it around"},
			Examples: store.ExampleSet{
				"everyday": {
					"Isn't that belief itself a bit too old to keep around?",
					"By that logic your belief is also too old to be useful. Time to replace it.",
				},
			},
		},
	}
}

// SeedStatements returns the built-in practice statement bank.
func SeedStatements() []store.Statement {
	return []store.Statement{
		{ID: 1, Statement: "I am too old to learn new things", Category: "self-belief", Difficulty: store.DifficultyEasy},
		{ID: 2, Statement: "I never have enough time for myself", Category: "lifestyle", Difficulty: store.DifficultyEasy},
		{ID: 3, Statement: "Money is the root of all evil", Category: "values", Difficulty: store.DifficultyEasy},
		{ID: 4, Statement: "People can't really change", Category: "relationships", Difficulty: store.DifficultyEasy},
		{ID: 5, Statement: "If I ask for help it means I am weak", Category: "self-belief", Difficulty: store.DifficultyMedium},
		{ID: 6, Statement: "Criticism means I did a bad job", Category: "work", Difficulty: store.DifficultyMedium},
		{ID: 7, Statement: "Success requires sacrificing your health", Category: "work", Difficulty: store.DifficultyMedium},
		{ID: 8, Statement: "My past determines my future", Category: "self-belief", Difficulty: store.DifficultyMedium},
		{ID: 9, Statement: "If they loved me they would know what I need", Category: "relationships", Difficulty: store.DifficultyMedium},
		{ID: 10, Statement: "Failure means I am not good enough", Category: "self-belief", Difficulty: store.DifficultyHard},
		{ID: 11, Statement: "You can't trust anyone completely", Category: "relationships", Difficulty: store.DifficultyHard},
		{ID: 12, Statement: "Real talent is something you are born with", Category: "values", Difficulty: store.DifficultyHard},
		{ID: 13, Statement: "Being right matters more than being kind", Category: "values", Difficulty: store.DifficultyHard},
		{ID: 14, Statement: "If I relax everything will fall apart", Category: "lifestyle", Difficulty: store.DifficultyHard},
	}
}

// Seed writes the built-in catalog into the given repositories, replacing
// any rows with the same IDs.
func Seed(ctx context.Context, tricks store.TrickRepo, statements store.StatementRepo) error {
	if err := tricks.UpsertAll(ctx, SeedTricks()); err != nil {
		return err
	}
	return statements.UpsertAll(ctx, SeedStatements())
}
