package usecase

import "time"

// SetClock replaces the clock of the board view for testing
func (uc *BoardUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// DisplayedCount returns the number of statuses held by the board view
func (uc *BoardUseCase) DisplayedCount() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.displayed)
}

// EntityLock exposes the lock shared by board moves and transitions
func (uc *BoardUseCase) EntityLock() *EntityLock {
	return uc.lock
}
