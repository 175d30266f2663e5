// Package bot implements the conversational side of orgbot: the main menu,
// the registration and event creation wizards, event listings, the admin
// panel and a few self-test commands.
//
// Updates from one chat are handled in order by the same worker, so the
// per-chat wizard state needs no further locking.
package bot
