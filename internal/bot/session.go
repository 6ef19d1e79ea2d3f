package bot

import "sync"

// Sessions хранит состояние диалога по chat_id в памяти процесса.
// После рестарта все диалоги начинаются с меню.
type Sessions struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[int64]State)}
}

func (s *Sessions) Get(chatID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[chatID]
}

func (s *Sessions) Set(chatID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == Choosing {
		delete(s.states, chatID)
		return
	}
	s.states[chatID] = state
}
