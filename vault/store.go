package vault

// NewStore returns an empty store.
func NewStore(name string) *Store {
	return &Store{Name: name, Entries: []Entry{}}
}

// NewEntry builds an entry, treating empty username or password as absent.
func NewEntry(name, username, password string) Entry {
	e := Entry{Name: name}
	if username != "" {
		e.Username = &username
	}
	if password != "" {
		e.Password = &password
	}
	return e
}

// UsernameOr returns the username or def when absent.
func (e Entry) UsernameOr(def string) string {
	if e.Username == nil {
		return def
	}
	return *e.Username
}

// PasswordOr returns the password or def when absent.
func (e Entry) PasswordOr(def string) string {
	if e.Password == nil {
		return def
	}
	return *e.Password
}

func (e Entry) Equal(o Entry) bool {
	return e.Name == o.Name && optEqual(e.Username, o.Username) && optEqual(e.Password, o.Password)
}

func optEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Index returns the position of the entry with exactly this name, or -1.
func (s *Store) Index(name string) int {
	for i := range s.Entries {
		if s.Entries[i].Name == name {
			return i
		}
	}
	return -1
}

func (s *Store) Find(name string) (*Entry, bool) {
	i := s.Index(name)
	if i < 0 {
		return nil, false
	}
	return &s.Entries[i], true
}

// Names lists entry names in insertion order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		names = append(names, e.Name)
	}
	return names
}

// Append adds e at the end without checking for duplicates.
func (s *Store) Append(e Entry) {
	s.Entries = append(s.Entries, e)
}

// Remove deletes the first entry named name and reports whether one existed.
func (s *Store) Remove(name string) bool {
	i := s.Index(name)
	if i < 0 {
		return false
	}
	s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
	return true
}

// Replace swaps the entry carrying e.Name for e.
func (s *Store) Replace(e Entry) bool {
	i := s.Index(e.Name)
	if i < 0 {
		return false
	}
	s.Entries[i] = e
	return true
}

// Equal compares name and entries in order. Nil and empty entry lists are equal.
func (s *Store) Equal(o *Store) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Name != o.Name || len(s.Entries) != len(o.Entries) {
		return false
	}
	for i := range s.Entries {
		if !s.Entries[i].Equal(o.Entries[i]) {
			return false
		}
	}
	return true
}
