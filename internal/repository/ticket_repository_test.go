package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/kanban-board/internal/model"
)

func TestTicketPositionsIncrease(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")
	b := createBoard(t, r.boards, u.ID, "B")
	col := b.Columns[0].ID

	first := &model.Ticket{BoardID: b.ID, ColumnID: col, Title: "T1"}
	require.NoError(t, r.tickets.Create(ctx, first))
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, model.PriorityMedium, first.Priority)

	last := first.Position
	var ids []uint64
	for i := 0; i < 5; i++ {
		tk := &model.Ticket{BoardID: b.ID, ColumnID: col, Title: "T"}
		require.NoError(t, r.tickets.Create(ctx, tk))
		assert.Greater(t, tk.Position, last)
		last = tk.Position
		ids = append(ids, tk.ID)
	}

	// gaps left by deletes are not compacted
	require.NoError(t, r.tickets.Delete(ctx, ids[1]))
	tk := &model.Ticket{BoardID: b.ID, ColumnID: col, Title: "after delete"}
	require.NoError(t, r.tickets.Create(ctx, tk))
	assert.Equal(t, last+1, tk.Position)
	remaining, err := r.tickets.ListByBoard(ctx, b.ID)
	require.NoError(t, err)
	for _, x := range remaining {
		assert.NotEqual(t, 3, x.Position)
	}

	// other columns count independently
	other := &model.Ticket{BoardID: b.ID, ColumnID: b.Columns[2].ID, Title: "O"}
	require.NoError(t, r.tickets.Create(ctx, other))
	assert.Equal(t, 1, other.Position)
}

func TestTicketPositionsUnderConcurrency(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")
	b := createBoard(t, r.boards, u.ID, "B")
	col := b.Columns[0].ID

	const n = 20
	var wg sync.WaitGroup
	positions := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tk := &model.Ticket{BoardID: b.ID, ColumnID: col, Title: "T"}
			if assert.NoError(t, r.tickets.Create(ctx, tk)) {
				positions[i] = tk.Position
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for _, p := range positions {
		assert.False(t, seen[p], "duplicate position %d", p)
		seen[p] = true
	}
	for p := 1; p <= n; p++ {
		assert.True(t, seen[p], "missing position %d", p)
	}
}

func TestTicketColumnMustBelongToBoard(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")
	b1 := createBoard(t, r.boards, u.ID, "B1")
	b2 := createBoard(t, r.boards, u.ID, "B2")

	err := r.tickets.Create(ctx, &model.Ticket{BoardID: b1.ID, ColumnID: b2.Columns[0].ID, Title: "x"})
	assert.ErrorIs(t, err, ErrInvalid)

	err = r.tickets.Create(ctx, &model.Ticket{BoardID: b1.ID, ColumnID: 9999, Title: "x"})
	assert.ErrorIs(t, err, ErrInvalid)

	tk := &model.Ticket{BoardID: b1.ID, ColumnID: b1.Columns[0].ID, Title: "ok"}
	require.NoError(t, r.tickets.Create(ctx, tk))
	other := b2.Columns[1].ID
	_, err = r.tickets.Update(ctx, tk.ID, model.TicketPatch{ColumnID: &other})
	assert.ErrorIs(t, err, ErrInvalid)

	got, err := r.tickets.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, b1.Columns[0].ID, got.ColumnID)
}

func TestTicketPartialUpdate(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")
	b := createBoard(t, r.boards, u.ID, "B")

	due := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tk := &model.Ticket{BoardID: b.ID, ColumnID: b.Columns[0].ID, Title: "T", Description: strPtr("d"),
		Priority: model.PriorityHigh, DueDate: &due}
	require.NoError(t, r.tickets.Create(ctx, tk))
	before, err := r.tickets.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	require.NotNil(t, before.DueDate)
	assert.True(t, due.Equal(*before.DueDate))
	assert.Nil(t, before.StartDate)

	time.Sleep(5 * time.Millisecond)
	after, err := r.tickets.Update(ctx, tk.ID, model.TicketPatch{Title: strPtr("T2")})
	require.NoError(t, err)
	assert.Equal(t, "T2", after.Title)
	assert.Equal(t, before.Description, after.Description)
	assert.Equal(t, before.Priority, after.Priority)
	assert.Equal(t, before.Position, after.Position)
	assert.Equal(t, before.ColumnID, after.ColumnID)
	assert.True(t, before.DueDate.Equal(*after.DueDate))
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	start := time.Date(2029, 12, 1, 0, 0, 0, 0, time.UTC)
	after, err = r.tickets.Update(ctx, tk.ID, model.TicketPatch{
		DueDate:   model.Null[time.Time](),
		StartDate: model.Some(start),
		Priority:  strPtr("urgent"),
	})
	require.NoError(t, err)
	assert.Nil(t, after.DueDate)
	require.NotNil(t, after.StartDate)
	assert.True(t, start.Equal(*after.StartDate))
	assert.Equal(t, "urgent", after.Priority)
	assert.Equal(t, "T2", after.Title)

	_, err = r.tickets.Update(ctx, 9999, model.TicketPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTicketMove(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")
	b := createBoard(t, r.boards, u.ID, "B")
	todo, done := b.Columns[0].ID, b.Columns[2].ID

	for i := 0; i < 3; i++ {
		require.NoError(t, r.tickets.Create(ctx, &model.Ticket{BoardID: b.ID, ColumnID: done, Title: "d"}))
	}
	tk := &model.Ticket{BoardID: b.ID, ColumnID: todo, Title: "moving"}
	require.NoError(t, r.tickets.Create(ctx, tk))

	moved, err := r.tickets.Update(ctx, tk.ID, model.TicketPatch{ColumnID: &done})
	require.NoError(t, err)
	assert.Equal(t, done, moved.ColumnID)
	assert.Equal(t, 4, moved.Position)

	pos := 0
	moved, err = r.tickets.Update(ctx, tk.ID, model.TicketPatch{ColumnID: &todo, Position: &pos})
	require.NoError(t, err)
	assert.Equal(t, todo, moved.ColumnID)
	assert.Equal(t, 0, moved.Position)

	// same column with a position only reorders
	pos = 9
	moved, err = r.tickets.Update(ctx, tk.ID, model.TicketPatch{ColumnID: &todo, Position: &pos})
	require.NoError(t, err)
	assert.Equal(t, 9, moved.Position)
}

func TestTicketDelete(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")
	b := createBoard(t, r.boards, u.ID, "B")
	tk := &model.Ticket{BoardID: b.ID, ColumnID: b.Columns[0].ID, Title: "T"}
	require.NoError(t, r.tickets.Create(ctx, tk))

	require.NoError(t, r.tickets.Delete(ctx, tk.ID))
	assert.ErrorIs(t, r.tickets.Delete(ctx, tk.ID), ErrNotFound)
}

func TestTicketPositionBounds(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")
	b := createBoard(t, r.boards, u.ID, "B")
	col := b.Columns[0].ID

	tk := &model.Ticket{BoardID: b.ID, ColumnID: col, Title: "T"}
	require.NoError(t, r.tickets.Create(ctx, tk))

	for _, bad := range []int{-1, model.MaxPosition + 1} {
		_, err := r.tickets.Update(ctx, tk.ID, model.TicketPatch{Position: &bad})
		assert.ErrorIs(t, err, ErrInvalid, "position %d", bad)
	}

	top := model.MaxPosition
	got, err := r.tickets.Update(ctx, tk.ID, model.TicketPatch{Position: &top})
	require.NoError(t, err)
	assert.Equal(t, model.MaxPosition, got.Position)

	// no position above the top one is left, so appending must fail
	// instead of wrapping around
	next := &model.Ticket{BoardID: b.ID, ColumnID: col, Title: "overflow"}
	assert.ErrorIs(t, r.tickets.Create(ctx, next), ErrInvalid)
	tickets, err := r.tickets.ListByBoard(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, tickets, 1)

	// moving onto that column without a position fails the same way
	other := &model.Ticket{BoardID: b.ID, ColumnID: b.Columns[1].ID, Title: "mover"}
	require.NoError(t, r.tickets.Create(ctx, other))
	_, err = r.tickets.Update(ctx, other.ID, model.TicketPatch{ColumnID: &col})
	assert.ErrorIs(t, err, ErrInvalid)
}
