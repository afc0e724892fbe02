package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"terranova/internal/domain/entity"
)

func TestSessionDocRoundTrip(t *testing.T) {
	s := entity.NewPlanSession("alice", entity.VariantGridPlan,
		entity.PlanForm{Name: "Atlantis", Population: 100_000, Size: 2},
		&entity.CityPlanResponse{
			PlanGrid: entity.Grid{{12, 0}, {0, 12}},
			Legend:   entity.Legend{{Code: 12, Name: "Road"}, {Code: 0, Name: "Empty"}},
			Metrics:  entity.Metrics{{Key: "walkability_index", Value: entity.Number(71)}, {Key: "grade", Value: entity.Text("B")}},
			Notes:    []string{"one"},
		}, "live", time.Hour)
	s.MarkSimulated()

	doc, err := toDoc(s)
	require.NoError(t, err)
	assert.Nil(t, doc.Response)
	assert.NotEmpty(t, doc.ResponseJSON)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, s.ID, m["id"])
	assert.Equal(t, "alice", m["client_id"])
	assert.Contains(t, m, "expires_at")
	assert.NotContains(t, m, "response")

	var back sessionDoc
	require.NoError(t, bson.Unmarshal(raw, &back))
	got, err := back.session()
	require.NoError(t, err)

	assert.Equal(t, s.ID, got.ID)
	assert.True(t, got.Simulated)
	assert.Equal(t, entity.DemoNotice, got.Notice)
	assert.Equal(t, s.Response.Legend, got.Response.Legend)
	assert.Equal(t, s.Response.Metrics, got.Response.Metrics)
	assert.Equal(t, s.Response.PlanGrid, got.Response.PlanGrid)
	assert.Equal(t, s.Form, got.Form)
}

func TestSessionDocWithoutResponse(t *testing.T) {
	s := &entity.PlanSession{ID: "x"}
	doc, err := toDoc(s)
	require.NoError(t, err)
	assert.Empty(t, doc.ResponseJSON)

	got, err := doc.session()
	require.NoError(t, err)
	assert.Nil(t, got.Response)
}
