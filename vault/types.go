package vault

const (
	SaltLen   = 12
	NonceLen  = 12
	KeyLen    = 32
	TagLen    = 16
	HeaderLen = SaltLen + NonceLen
)

// Entry is a named credential. Nil Username or Password means the field is absent.
type Entry struct {
	Name     string
	Username *string
	Password *string
}

// Store is the unit of persistence: the whole entry list is encrypted as one payload.
// Entry names are expected to be unique but the store does not enforce it.
type Store struct {
	Name    string
	Entries []Entry
}

type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}
