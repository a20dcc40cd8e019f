package person

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAttachEdges_KeepsBothDirectionsInverse(t *testing.T) {
	persons := []Person{
		Hydrate(1, "A", nil, nil, "", nil, time.Time{}),
		Hydrate(2, "B", nil, nil, "", nil, time.Time{}),
		Hydrate(3, "C", nil, nil, "", nil, time.Time{}),
	}
	edges := []Edge{
		{SupervisorID: 1, SubordinateID: 2},
		{SupervisorID: 1, SubordinateID: 3},
		{SupervisorID: 2, SubordinateID: 3},
		{SupervisorID: 2, SubordinateID: 3},
		{SupervisorID: 9, SubordinateID: 1},
	}

	got := AttachEdges(persons, edges)

	require.Equal(t, []int64{2, 3}, got[0].SubordinateIDs())
	require.Equal(t, []int64{9}, got[0].SupervisorIDs())
	require.Equal(t, []int64{1}, got[1].SupervisorIDs())
	require.Equal(t, []int64{3}, got[1].SubordinateIDs())
	require.Equal(t, []int64{1, 2}, got[2].SupervisorIDs())
	require.Empty(t, got[2].SubordinateIDs())
}

func TestPerson_AccessorsReturnCopies(t *testing.T) {
	title := "Diretor"
	p := New("  Murilo ", &title, nil, "", nil)
	title = "changed"

	require.Equal(t, "Murilo", p.Name())
	require.Equal(t, "Diretor", *p.Title())

	got := p.Title()
	*got = "mutated"
	require.Equal(t, "Diretor", *p.Title())
	require.True(t, New("", nil, nil, "", nil).IsZero())
}

func TestFromRow(t *testing.T) {
	img := "a.png"
	p := FromRow(Row{Name: "A", Shift: "Noturno", ImagePath: &img})

	require.Equal(t, "A", p.Name())
	require.Equal(t, "Noturno", p.Shift())
	require.Equal(t, "a.png", *p.ImagePath())
	require.Nil(t, p.Title())
	require.Zero(t, p.ID())
}
