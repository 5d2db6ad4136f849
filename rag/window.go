package rag

import "github.com/aoleynikov/bobchat/store"

const defaultWindowSize = 5

// Window returns the trailing size messages of history in timestamp
// order. size <= 0 falls back to the default of 5 turns.
func Window(history []store.Message, size int) []store.Message {
	if size <= 0 {
		size = defaultWindowSize
	}
	if len(history) <= size {
		return history
	}
	return history[len(history)-size:]
}

// LatestUser returns the window's last message and whether it was
// user-authored. The orchestrator only answers when it was.
func LatestUser(window []store.Message) (store.Message, bool) {
	if len(window) == 0 {
		return store.Message{}, false
	}
	latest := window[len(window)-1]
	return latest, latest.Participant == "user"
}
