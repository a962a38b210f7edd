package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"maps"
	"sort"
	"time"
)

// GroupDirectory holds every named group and its membership.
// Groups are permanent: nothing removes them once created.
type GroupDirectory struct {
	groups map[string]*domain.Group
}

func NewGroupDirectory() *GroupDirectory {
	return &GroupDirectory{groups: make(map[string]*domain.Group)}
}

func (d *GroupDirectory) Create(name string, now time.Time) (*domain.Group, error) {
	if _, ok := d.groups[name]; ok {
		return nil, errors.ErrGroupAlreadyExists
	}
	group := domain.NewGroup(name, now)
	d.groups[name] = group
	return group, nil
}

func (d *GroupDirectory) Get(name string) (*domain.Group, bool) {
	group, ok := d.groups[name]
	return group, ok
}

// Join reports false when the group is absent or the session already belongs to it.
func (d *GroupDirectory) Join(name, sessionID string) bool {
	group, ok := d.groups[name]
	if !ok {
		return false
	}
	return group.Members.Add(sessionID)
}

// Leave reports false when the session was not a member.
func (d *GroupDirectory) Leave(name, sessionID string) bool {
	group, ok := d.groups[name]
	if !ok {
		return false
	}
	return group.Members.Remove(sessionID)
}

func (d *GroupDirectory) IsMember(name, sessionID string) bool {
	group, ok := d.groups[name]
	return ok && group.Members.Has(sessionID)
}

// Names lists groups in creation order, ties broken by name.
func (d *GroupDirectory) Names() []string {
	groups := make([]*domain.Group, 0, len(d.groups))
	for _, group := range d.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CreatedAt.Equal(groups[j].CreatedAt) {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].CreatedAt.Before(groups[j].CreatedAt)
	})
	names := make([]string, len(groups))
	for i, group := range groups {
		names[i] = group.Name
	}
	return names
}

// Restore loads a persisted group. Sessions do not survive a restart, so members are cleared.
func (d *GroupDirectory) Restore(group domain.Group) {
	d.groups[group.Name] = domain.NewGroup(group.Name, group.CreatedAt)
}

func (d *GroupDirectory) Snapshot() []domain.Group {
	res := make([]domain.Group, 0, len(d.groups))
	for _, group := range d.groups {
		res = append(res, domain.Group{
			Name:      group.Name,
			Members:   maps.Clone(group.Members),
			CreatedAt: group.CreatedAt,
		})
	}
	return res
}

func (d *GroupDirectory) Len() int {
	return len(d.groups)
}
