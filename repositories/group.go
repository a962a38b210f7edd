//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const groupPrefix = "group:"

type IGroupRepository interface {
	SaveGroups(ctx context.Context, groups ...domain.Group) error
	GetGroups(ctx context.Context) ([]domain.Group, error)
}

type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) GroupRepository {
	return GroupRepository{db: db}
}

type DiskGroup struct {
	Name      string   `cbor:"name"`
	Members   []string `cbor:"members"`
	CreatedAt int64    `cbor:"created_at"`
}

func (r GroupRepository) SaveGroups(ctx context.Context, groups ...domain.Group) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		for _, group := range groups {
			if err := ctx.Err(); err != nil {
				return err
			}
			bytes, err := marshal(fromGroup(group))
			if err != nil {
				return fmt.Errorf("marshal group %s: %w", group.Name, err)
			}
			if err = txn.Set([]byte(groupPrefix+group.Name), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r GroupRepository) GetGroups(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		return scanPrefix(ctx, txn, []byte(groupPrefix), func(_, value []byte) error {
			var disk DiskGroup
			if err := unmarshal(value, &disk); err != nil {
				return err
			}
			groups = append(groups, toGroup(disk))
			return nil
		})
	})
	return groups, err
}

func fromGroup(g domain.Group) DiskGroup {
	members := lo.Keys(g.Members)
	sort.Strings(members)
	return DiskGroup{Name: g.Name, Members: members, CreatedAt: g.CreatedAt.UnixMilli()}
}

func toGroup(d DiskGroup) domain.Group {
	members := make(domain.Set, len(d.Members))
	for _, m := range d.Members {
		members.Add(m)
	}
	return domain.Group{Name: d.Name, Members: members, CreatedAt: time.UnixMilli(d.CreatedAt).UTC()}
}
