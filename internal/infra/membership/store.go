package membership

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"bicycle_rental/internal/domain/member"
)

const (
	statusActive   = "active"
	statusInactive = "inactive"
)

// Store is an immutable membership source loaded once at start-up.
type Store struct {
	members map[string]member.Member
}

// NewStaticStore builds a Store from known members.
func NewStaticStore(members ...member.Member) *Store {
	s := &Store{members: make(map[string]member.Member, len(members))}
	for _, m := range members {
		s.members[m.ID] = m
	}
	return s
}

// LoadFile reads a tab separated members file:
//
//	MemberID	Status	RentalLimit
//	M001	Active	2
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open members file: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load members file %s: %w", path, err)
	}
	return s, nil
}

// Parse reads the members file format from r. The first line is a header.
func Parse(r io.Reader) (*Store, error) {
	s := &Store{members: make(map[string]member.Member)}
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if line == 1 || strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 tab separated fields, got %d", line, len(fields))
		}
		id := strings.TrimSpace(fields[0])
		if id == "" {
			return nil, fmt.Errorf("line %d: empty member id", line)
		}

		var active bool
		switch strings.ToLower(strings.TrimSpace(fields[1])) {
		case statusActive:
			active = true
		case statusInactive:
			active = false
		default:
			return nil, fmt.Errorf("line %d: unknown membership status %q", line, fields[1])
		}

		limit, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("line %d: invalid rental limit %q", line, fields[2])
		}

		s.members[id] = member.Member{ID: id, Active: active, RentalLimit: limit}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*member.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %q: %w", id, member.ErrMemberNotFound)
	}
	return &m, nil
}

// Len returns the number of known members.
func (s *Store) Len() int { return len(s.members) }
