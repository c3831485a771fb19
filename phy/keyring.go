package phy

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"dht22dec/shared"

	"github.com/brocaar/lorawan"
)

var (
	ErrUnknownDevice = errors.New("no session for DevAddr")
	ErrInvalidMIC    = errors.New("invalid MIC")
	ErrNotDataUp     = errors.New("not an uplink data frame")
	ErrDuplicateFCnt = errors.New("frame counter already seen")
)

// Session holds the ABP keys of one device plus the last seen uplink
// counter, needed to rebuild the 32 bit FCnt from the 16 bits on air.
type Session struct {
	DevAddr lorawan.DevAddr
	NwkSKey lorawan.AES128Key
	AppSKey lorawan.AES128Key

	fCntUp uint32
	seen   bool
}

// Keyring maps DevAddr to Session. It is safe for concurrent use.
type Keyring struct {
	mu       sync.Mutex
	sessions map[lorawan.DevAddr]*Session
}

func NewKeyring(cfg map[string]shared.SessionConfig) (*Keyring, error) {
	k := &Keyring{sessions: map[lorawan.DevAddr]*Session{}}
	for addr, keys := range cfg {
		var s Session
		if err := s.DevAddr.UnmarshalText([]byte(strings.TrimSpace(addr))); err != nil {
			return nil, fmt.Errorf("invalid DevAddr %q: %w", addr, err)
		}
		if err := s.NwkSKey.UnmarshalText([]byte(keys.NwkSKey)); err != nil {
			return nil, fmt.Errorf("invalid NwkSKey for %s: %w", addr, err)
		}
		if err := s.AppSKey.UnmarshalText([]byte(keys.AppSKey)); err != nil {
			return nil, fmt.Errorf("invalid AppSKey for %s: %w", addr, err)
		}
		k.sessions[s.DevAddr] = &s
	}
	return k, nil
}

func (k *Keyring) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.sessions)
}

func (k *Keyring) lookup(addr lorawan.DevAddr) (*Session, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.sessions[addr]
	return s, ok
}

// fullFCnt extends a 16 bit counter using the last accepted value.
func (s *Session) fullFCnt(fcnt16 uint32) uint32 {
	if !s.seen {
		return fcnt16
	}
	full := s.fCntUp&0xFFFF0000 | fcnt16&0xFFFF
	if full < s.fCntUp {
		full += 0x10000
	}
	return full
}
