package reminder

// reminderMessages rotate across sends so returning users don't see the
// same nudge twice in a row.
var reminderMessages = []string{
	"It's been a while since your last reframing practice. One short session keeps the skill sharp. Send /learn to pick up where you left off.",
	"Your language tricks miss you! A five-minute session today beats an hour next month. Try /learn.",
	"Quick challenge: take any limiting thought you had today and reframe it. Then check yourself with /learn.",
	"Streaks are built one day at a time. Restart yours with a single practice session: /learn.",
	"The best conversationalists practice deliberately. Your next statement is waiting at /learn.",
}
