package network_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/network"
)

func TestGroupByCompany_SortsCompaniesKeepsStoreOrder(t *testing.T) {
	// GIVEN: stores of two companies plus one without a company name
	stores := []network.Store{
		{Code: "PDV3", RagioneSociale: "Zeta Srl"},
		{Code: "PDV1", RagioneSociale: "Alfa Spa"},
		{Code: "PDV9"},
		{Code: "PDV2", RagioneSociale: " Alfa Spa "},
	}

	// WHEN: grouped
	companies := network.GroupByCompany(stores)

	// THEN: the nameless store is its own company; names are trimmed
	require.Len(t, companies, 3)
	assert.Equal(t, "Alfa Spa", companies[0].Name)
	assert.Equal(t, []string{"PDV1", "PDV2"}, companies[0].StoreCodes())
	assert.True(t, companies[0].IsMultiStore())
	assert.Equal(t, "PDV9", companies[1].Name)
	assert.Equal(t, "Zeta Srl", companies[2].Name)

	c, ok := network.CompanyOf(companies, "PDV2")
	require.True(t, ok)
	assert.Equal(t, "Alfa Spa", c.Name)
	_, ok = network.CompanyOf(companies, "nope")
	assert.False(t, ok)
}

func TestCompany_HasBusinessPromoter(t *testing.T) {
	c := network.Company{Stores: []network.Store{
		{Code: "A", Clusters: network.Clusters{PIva: network.PIvaJunior}},
		{Code: "B", Clusters: network.Clusters{PIva: network.PIvaBusinessPromoter}},
	}}

	assert.True(t, c.HasBusinessPromoter())
	c.Stores = c.Stores[:1]
	assert.False(t, c.HasBusinessPromoter())
}

func TestPIvaCluster_Class(t *testing.T) {
	assert.Equal(t, network.ClassPlus, network.PIvaBusinessPromoterPlus.Class())
	assert.Equal(t, network.ClassStandard, network.PIvaBusinessPromoter.Class())
	assert.Equal(t, network.ClassStandard, network.PIvaSenior.Class())
	assert.Equal(t, network.ClassNone, network.PIvaJunior.Class())
	assert.Equal(t, network.ClassNone, network.PIvaCluster("").Class())
}

func TestValidateStore(t *testing.T) {
	ok := network.Store{Code: "PDV1", PositionType: network.PositionMall,
		Clusters: network.Clusters{Mobile: network.MobileM3, CB: network.CB2}}
	assert.NoError(t, network.ValidateStore(ok))
	assert.NoError(t, network.ValidateStore(network.Store{Code: "PDV1"}), "empty clusters are valid")

	assert.Error(t, network.ValidateStore(network.Store{}))
	assert.Error(t, network.ValidateStore(network.Store{Code: "X", PositionType: "airport"}))
	assert.Error(t, network.ValidateStore(network.Store{Code: "X", Clusters: network.Clusters{Mobile: "M9"}}))
	assert.Error(t, network.ValidateStore(network.Store{Code: "X", Clusters: network.Clusters{PIva: "gold"}}))
}

func TestDefaultCalendar_MallsOpenOnSunday(t *testing.T) {
	assert.Contains(t, network.DefaultCalendar(network.PositionMall).WeeklySchedule, time.Sunday)
	assert.NotContains(t, network.DefaultCalendar(network.PositionStreet).WeeklySchedule, time.Sunday)
	assert.Len(t, network.DefaultCalendar(network.PositionOther).WeeklySchedule, 6)
}
