// Package presence tracks which users are currently in each chat's voice
// session. The Bot API does not expose a live participant list, so the
// registry is fed from voice chat service messages and explicit join/leave
// commands, and is the bot's view of who is connected.
package presence
