package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"terranova/internal/domain/repository"
)

func TestMapDocRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	png := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	doc := toMapDoc(repository.StoredMap{
		SessionID: "s1",
		FileName:  "atlantis_city_map.png",
		Path:      "/ignored",
		Width:     510,
		Height:    510,
		CellSize:  51,
	}, png, now)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "s1", m["session_id"])
	assert.Equal(t, "atlantis_city_map.png", m["file_name"])
	assert.Equal(t, int32(51), m["cell_size"])
	assert.Equal(t, primitive.Binary{Data: png}, m["png"])
	assert.Contains(t, m, "created_at")

	var back mapDoc
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, png, back.PNG)
	assert.True(t, now.Equal(back.CreatedAt))
	assert.Equal(t, repository.StoredMap{
		SessionID: "s1",
		FileName:  "atlantis_city_map.png",
		Path:      "mongodb://plan_maps/s1",
		Width:     510,
		Height:    510,
		CellSize:  51,
	}, back.stored())
}
