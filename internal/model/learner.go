package model

// Learner identifies whose profile a request reads and writes. Anonymous
// learners carry only an ID issued by the server.
type Learner struct {
	ID         string
	AccountID  string
	Instructor bool
	Admin      bool
}

// SignedIn reports whether the learner is backed by an account.
func (l Learner) SignedIn() bool { return l.AccountID != "" }
