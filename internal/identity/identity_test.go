package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"anon", Anon, false},
		{"customer", Customer, false},
		{" Airline ", Airline, false},
		{"ADMIN", Admin, false},
		{"pilot", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Identity
		want Identity
	}{
		{
			name: "anonymous stays anonymous",
			in:   Identity{LoggedIn: false, Type: Anon},
			want: Anonymous(),
		},
		{
			name: "anon drops stray entity fields",
			in:   Identity{LoggedIn: false, Type: Anon, EntityID: ptr(int64(3)), EntityName: ptr("x")},
			want: Anonymous(),
		},
		{
			name: "logged out but typed collapses to anon",
			in:   Identity{LoggedIn: false, Type: Customer, EntityID: ptr(int64(3)), EntityName: ptr("x")},
			want: Anonymous(),
		},
		{
			name: "unknown type collapses to anon",
			in:   Identity{LoggedIn: true, Type: "pilot", EntityID: ptr(int64(3)), EntityName: ptr("x")},
			want: Anonymous(),
		},
		{
			name: "logged in without entity collapses to anon",
			in:   Identity{LoggedIn: true, Type: Admin},
			want: Anonymous(),
		},
		{
			name: "valid airline kept",
			in:   Identity{LoggedIn: true, Type: "Airline", Username: "elal", EntityID: ptr(int64(7)), EntityName: ptr("El Al")},
			want: Identity{LoggedIn: true, Type: Airline, Username: "elal", EntityID: ptr(int64(7)), EntityName: ptr("El Al")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.True(t, got.Equal(tt.want), "got %+v, want %+v", got, tt.want)
			assert.Equal(t, got.Type == Anon, !got.LoggedIn)
			assert.Equal(t, got.LoggedIn, got.EntityID != nil)
			assert.Equal(t, got.LoggedIn, got.EntityName != nil)
		})
	}
}

func TestIdentity_NameAndEntity(t *testing.T) {
	anon := Anonymous()
	assert.Equal(t, "", anon.Name())
	_, ok := anon.Entity()
	assert.False(t, ok)

	c := Identity{LoggedIn: true, Type: Customer, EntityID: ptr(int64(12)), EntityName: ptr("Dana")}
	assert.Equal(t, "Dana", c.Name())
	id, ok := c.Entity()
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)
}

func TestIdentity_Equal(t *testing.T) {
	a := Identity{LoggedIn: true, Type: Customer, EntityID: ptr(int64(1)), EntityName: ptr("A")}
	b := Identity{LoggedIn: true, Type: Customer, EntityID: ptr(int64(1)), EntityName: ptr("A")}
	c := Identity{LoggedIn: true, Type: Customer, EntityID: ptr(int64(2)), EntityName: ptr("A")}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(Anonymous()))
	assert.True(t, Anonymous().Equal(Anonymous()))
}
