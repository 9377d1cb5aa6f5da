package scheduler

// StatusByName returns the recorded statuses keyed by plain module name.
func (s *Scheduler) StatusByName() map[string]TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]TaskStatus, len(s.taskStatus))
	for name, status := range s.taskStatus {
		out[name.String()] = status
	}
	return out
}
