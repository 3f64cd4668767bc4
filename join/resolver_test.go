/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package join

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/datastore/mock"
	"github.com/suparena/widerow/errors"
	"github.com/suparena/widerow/registry"
	"github.com/suparena/widerow/serializer"
	"github.com/suparena/widerow/storagemodels"
)

type user struct {
	ID   uuid.UUID
	Name string
}

var userMeta = registry.EntityMeta{
	Type:         "User",
	ColumnFamily: "users",
	IDSerializer: serializer.UUID,
	IDOf: func(e any) (any, error) {
		u, ok := e.(*user)
		if !ok {
			return nil, fmt.Errorf("not a user: %T", e)
		}
		return u.ID, nil
	},
}

// entityStore keeps users in the users column family, one "name" column per row.
type entityStore struct {
	driver  *mock.Driver
	removed []any
	failRm  error
}

func (s *entityStore) Persist(ctx context.Context, meta registry.EntityMeta, entity any) (any, error) {
	u := entity.(*user)
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	rowKey, err := meta.RowKey(u.ID)
	if err != nil {
		return nil, err
	}
	return u.ID, s.driver.Set(ctx, meta.ColumnFamily, rowKey, storagemodels.Column{Name: []byte("name"), Value: []byte(u.Name)})
}

func (s *entityStore) Load(ctx context.Context, meta registry.EntityMeta, id any) (any, bool, error) {
	rowKey, err := meta.RowKey(id)
	if err != nil {
		return nil, false, err
	}
	col, found, err := s.driver.Get(ctx, meta.ColumnFamily, rowKey, []byte("name"))
	if err != nil || !found {
		return nil, found, err
	}
	return &user{ID: id.(uuid.UUID), Name: string(col.Value)}, true, nil
}

func (s *entityStore) Remove(ctx context.Context, meta registry.EntityMeta, id any) error {
	if s.failRm != nil {
		return s.failRm
	}
	s.removed = append(s.removed, id)
	rowKey, err := meta.RowKey(id)
	if err != nil {
		return err
	}
	return s.driver.Delete(ctx, meta.ColumnFamily, rowKey, []byte("name"))
}

func newResolver(t *testing.T) (*Resolver, *entityStore, *consistency.Policy) {
	t.Helper()
	store := &entityStore{driver: mock.New()}
	policy := consistency.NewPolicy(consistency.Levels{}, nil)
	return NewResolver(store.driver, policy, WithPersister(store), WithLoader(store), WithRemover(store)), store, policy
}

func TestPersistOrEnsureExists(t *testing.T) {
	ctx := context.Background()

	t.Run("cascade none rejects unsaved entity", func(t *testing.T) {
		r, store, policy := newResolver(t)
		u := &user{ID: uuid.New(), Name: "ghost"}

		_, err := r.PersistOrEnsureExists(ctx, u, Properties{Property: "owner", Target: userMeta, Cascade: CascadeNone})
		require.Error(t, err)
		assert.True(t, errors.IsUnresolvedJoinEntity(err))
		assert.Contains(t, err.Error(), u.ID.String())
		assert.Zero(t, policy.Outstanding())

		calls := store.driver.CallsTo("slice")
		require.Len(t, calls, 1)
		assert.Equal(t, 1, calls[0].Query.Limit)
		assert.Equal(t, consistency.One, calls[0].Level)
	})

	t.Run("cascade none accepts existing entity", func(t *testing.T) {
		r, store, _ := newResolver(t)
		u := &user{Name: "alice"}
		_, err := store.Persist(ctx, userMeta, u)
		require.NoError(t, err)

		id, err := r.PersistOrEnsureExists(ctx, u, Properties{Property: "owner", Target: userMeta})
		require.NoError(t, err)
		assert.Equal(t, u.ID, id)
	})

	t.Run("cascade persist saves the entity", func(t *testing.T) {
		r, store, _ := newResolver(t)
		u := &user{Name: "bob"}

		id, err := r.PersistOrEnsureExists(ctx, u, Properties{Property: "owner", Target: userMeta, Cascade: CascadeAll})
		require.NoError(t, err)
		assert.Equal(t, u.ID, id)

		exists, err := r.Exists(ctx, userMeta, id)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Len(t, store.driver.CallsTo("set"), 1)
	})

	t.Run("nil value", func(t *testing.T) {
		r, _, _ := newResolver(t)
		var u *user

		_, err := r.PersistOrEnsureExists(ctx, u, Properties{Property: "owner", Target: userMeta})
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("storage failure releases the level", func(t *testing.T) {
		r, store, policy := newResolver(t)
		store.driver.WithSliceError(fmt.Errorf("timeout"))

		_, err := r.PersistOrEnsureExists(ctx, &user{ID: uuid.New()}, Properties{Property: "owner", Target: userMeta})
		require.Error(t, err)
		assert.Zero(t, policy.Outstanding())
	})
}

func TestLoadJoinEntity(t *testing.T) {
	ctx := context.Background()
	r, store, _ := newResolver(t)
	props := Properties{Property: "owner", Target: userMeta}

	u := &user{Name: "carol"}
	_, err := store.Persist(ctx, userMeta, u)
	require.NoError(t, err)

	got, err := r.LoadJoinEntity(ctx, "", u.ID, props)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.(*user).Name)

	missing := uuid.New()
	_, err = r.LoadJoinEntity(ctx, "User", missing, props)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), `"owner"`)
}

func TestRemoveReferenced(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	r, store, _ := newResolver(t)
	r.RemoveReferenced(ctx, id, Properties{Property: "owner", Target: userMeta, Cascade: CascadeNone})
	assert.Empty(t, store.removed)

	r.RemoveReferenced(ctx, id, Properties{Property: "owner", Target: userMeta, Cascade: CascadeRemove})
	assert.Equal(t, []any{id}, store.removed)

	// Failures are swallowed.
	store.failRm = fmt.Errorf("denied")
	r.RemoveReferenced(ctx, id, Properties{Property: "owner", Target: userMeta, Cascade: CascadeAll})
}

func TestRef(t *testing.T) {
	ctx := context.Background()
	r, store, _ := newResolver(t)
	props := Properties{Property: "owner", Target: userMeta}

	u := &user{Name: "dave"}
	_, err := store.Persist(ctx, userMeta, u)
	require.NoError(t, err)

	ref := NewRef[*user](r, props, u.ID)
	assert.Equal(t, u.ID, ref.ID())
	assert.False(t, ref.Loaded())

	got, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dave", got.Name)
	assert.True(t, ref.Loaded())

	store.driver.ResetCalls()
	_, err = ref.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, store.driver.Calls(), "cached after first load")

	wrong := NewRef[string](r, props, u.ID)
	_, err = wrong.Get(ctx)
	assert.Error(t, err)
}

func TestCascadeAndIDs(t *testing.T) {
	for _, s := range []string{"none", "PERSIST", "Remove", "all", ""} {
		c, err := ParseCascade(s)
		require.NoError(t, err)
		if s != "" {
			assert.Equal(t, strings.ToUpper(s), c.String())
		}
	}
	_, err := ParseCascade("sometimes")
	assert.Error(t, err)

	assert.True(t, CascadeAll.Persists() && CascadeAll.Removes())
	assert.False(t, CascadePersist.Removes())
	assert.False(t, CascadeRemove.Persists())

	props := Properties{Property: "owner", Target: userMeta}
	id := uuid.New()
	b, err := props.EncodeID(id)
	require.NoError(t, err)
	back, err := props.DecodeID(b)
	require.NoError(t, err)
	assert.Equal(t, id, back)

	_, err = props.DecodeID(append(b, 0x01))
	assert.Error(t, err)
}

func TestRelationships(t *testing.T) {
	rels := NewRelationships()
	rels.Register("user_friends", Properties{Property: "friends", Target: userMeta, Cascade: CascadeRemove})
	rels.Register("user_followers", Properties{Property: "followers", Target: userMeta})

	assert.True(t, rels.CascadesRemove("user_friends"))
	assert.False(t, rels.CascadesRemove("user_followers"))
	assert.False(t, rels.CascadesRemove("unknown"))

	p, ok := rels.Lookup("user_followers")
	require.True(t, ok)
	assert.Equal(t, "followers", p.Property)
	assert.Equal(t, []string{"user_followers", "user_friends"}, rels.ColumnFamilies())
}
