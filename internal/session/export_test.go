package session

// resetConstructionGuard lets each test construct its own session.
func resetConstructionGuard() {
	constructed.Store(false)
}
