package domain

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActivities() []Activity {
	return []Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 2,
			Participants:    []string{"michael@mergington.edu"},
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
	}
}

func TestRegistryListReturnsEveryActivity(t *testing.T) {
	r := NewRegistry(seedActivities())

	list := r.List()
	require.Len(t, list, 2)
	for name, a := range list {
		assert.Equal(t, name, a.Name)
		assert.NotNil(t, a.Participants)
	}
	assert.Equal(t, []string{"Chess Club", "Gym Class"}, r.Names())
}

func TestRegistryListIsSnapshot(t *testing.T) {
	r := NewRegistry(seedActivities())

	list := r.List()
	chess := list["Chess Club"]
	chess.Participants[0] = "mutated@example.com"
	chess.Participants = append(chess.Participants, "extra@example.com")

	got, err := r.Get("Chess Club")
	require.NoError(t, err)
	assert.Equal(t, []string{"michael@mergington.edu"}, got.Participants)
}

func TestNewRegistryCollapsesDuplicateSeedEmails(t *testing.T) {
	r := NewRegistry([]Activity{{Name: "Art Club", Participants: []string{"a@x.io", "a@x.io", "b@x.io"}}})

	got, err := r.Get("Art Club")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, got.Participants)
}

func TestRegistrySignupAddsEmailOnce(t *testing.T) {
	r := NewRegistry(seedActivities())

	updated, err := r.Signup("Gym Class", "new@mergington.edu")
	require.NoError(t, err)
	assert.True(t, updated.HasParticipant("new@mergington.edu"))

	_, err = r.Signup("Gym Class", "new@mergington.edu")
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	got, err := r.Get("Gym Class")
	require.NoError(t, err)
	count := 0
	for _, p := range got.Participants {
		if p == "new@mergington.edu" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, got.Participants, 3)
}

func TestRegistrySignupUnknownActivity(t *testing.T) {
	r := NewRegistry(seedActivities())

	_, err := r.Signup("Underwater Basket Weaving", "x@example.com")
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestRegistrySignupIgnoresCapacityByDefault(t *testing.T) {
	r := NewRegistry(seedActivities())

	_, err := r.Signup("Chess Club", "one@example.com")
	require.NoError(t, err)
	updated, err := r.Signup("Chess Club", "two@example.com")
	require.NoError(t, err)
	assert.Len(t, updated.Participants, 3)
	assert.Equal(t, -1, updated.SpotsLeft())
}

func TestRegistrySignupEnforcesCapacityWhenEnabled(t *testing.T) {
	r := NewRegistry(seedActivities(), WithCapacityEnforcement())

	_, err := r.Signup("Chess Club", "one@example.com")
	require.NoError(t, err)
	_, err = r.Signup("Chess Club", "two@example.com")
	require.ErrorIs(t, err, ErrActivityFull)

	got, err := r.Get("Chess Club")
	require.NoError(t, err)
	assert.Len(t, got.Participants, 2)
}

func TestRegistryUnregisterRemovesOnlyThatEmail(t *testing.T) {
	r := NewRegistry(seedActivities())

	updated, err := r.Unregister("Gym Class", "john@mergington.edu")
	require.NoError(t, err)
	assert.Equal(t, []string{"olivia@mergington.edu"}, updated.Participants)

	_, err = r.Unregister("Gym Class", "john@mergington.edu")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegistryUnregisterUnknownActivity(t *testing.T) {
	r := NewRegistry(seedActivities())

	_, err := r.Unregister("Nope", "john@mergington.edu")
	require.ErrorIs(t, err, ErrActivityNotFound)

	got, err := r.Get("Gym Class")
	require.NoError(t, err)
	assert.Len(t, got.Participants, 2)
}

func TestRegistryConcurrentSignupsDoNotLoseUpdates(t *testing.T) {
	r := NewRegistry([]Activity{{Name: "Math Club", MaxParticipants: 10}})

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = r.Signup("Math Club", fmt.Sprintf("student%d@example.com", i))
		}(i)
	}
	wg.Wait()

	got, err := r.Get("Math Club")
	require.NoError(t, err)
	assert.Len(t, got.Participants, n)
}

