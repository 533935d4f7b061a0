// Package securemem keeps API credentials in memguard-protected memory so
// they cannot be recovered from a core dump or swap after startup.
package securemem

import "github.com/awnumar/memguard"

// Shutdown wipes all protected buffers. Call before normal process exit.
func Shutdown() {
	memguard.Purge()
}

// Credential is an API key held in an encrypted, locked buffer.
type Credential struct {
	buf *memguard.LockedBuffer
}

// NewCredential seals the given plaintext key. The caller should drop its
// own copy of the plaintext afterwards.
func NewCredential(plaintext string) *Credential {
	if plaintext == "" {
		// memguard rejects zero-length buffers.
		return &Credential{}
	}
	return &Credential{buf: memguard.NewBufferFromBytes([]byte(plaintext))}
}

// Reveal returns a plaintext copy of the key for handing to an SDK client
// constructor. The copy lives in ordinary memory.
func (c *Credential) Reveal() string {
	if c == nil || c.buf == nil {
		return ""
	}
	return string(c.buf.Bytes())
}

// IsEmpty reports whether no key is stored.
func (c *Credential) IsEmpty() bool {
	return c == nil || c.buf == nil || len(c.buf.Bytes()) == 0
}

// Destroy wipes the key. The credential must not be used afterwards.
func (c *Credential) Destroy() {
	if c == nil || c.buf == nil {
		return
	}
	c.buf.Destroy()
	c.buf = nil
}
