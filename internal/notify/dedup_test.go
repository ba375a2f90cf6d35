package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/order-notifier/internal/domain"
)

func orderAt(id, user string, min int, total domain.Amount) domain.Order {
	at := time.Date(2025, 5, 1, 10, min, 0, 0, time.UTC)
	return domain.Order{
		ID:          id,
		UserID:      user,
		Platform:    domain.PlatformLine,
		ExtractedAt: &at,
		OrderData:   domain.OrderData{TotalAmount: total},
	}
}

func ids(in []domain.Order) []string {
	out := make([]string, len(in))
	for i, o := range in {
		out[i] = o.ID
	}
	return out
}

func TestDedupTotal_ComputedFromItemsAndShipping(t *testing.T) {
	var d domain.OrderData
	raw := `{"items":[{"name":"a","price":100,"quantity":2},{"name":"b","price":50,"quantity":1}],"shippingCost":20}`
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	o := domain.Order{ID: "o1", UserID: "u1", OrderData: d}
	total, ok := DedupTotal(o)
	require.True(t, ok)
	assert.InDelta(t, 270.0, total, 1e-9)
	assert.Equal(t, "line:u1|270.00", DedupKey(o))
}

func TestDedupTotal_DeclaredWinsAndStringsParse(t *testing.T) {
	var d domain.OrderData
	require.NoError(t, json.Unmarshal([]byte(`{"totalAmount":"1,250.005","items":[{"price":1}]}`), &d))
	o := domain.Order{UserID: "u", Platform: domain.PlatformFacebook, OrderData: d}
	assert.Equal(t, "facebook:u|1250.01", DedupKey(o))
}

func TestDedupKey_NoKey(t *testing.T) {
	assert.Empty(t, DedupKey(domain.Order{UserID: "u"}), "nothing numeric")
	assert.Empty(t, DedupKey(domain.Order{OrderData: domain.OrderData{TotalAmount: domain.Num(5)}}), "no user")

	bareOnly := domain.Order{UserID: "u", OrderData: domain.OrderData{
		Items: []domain.OrderItem{{Name: "x", Bare: true}},
	}}
	assert.Empty(t, DedupKey(bareOnly))
}

func TestDedupOrders_SevenDuplicatesKeepLatest(t *testing.T) {
	var in []domain.Order
	for i := 0; i < 7; i++ {
		in = append(in, orderAt(string(rune('a'+i)), "u1", i, domain.Num(300)))
	}
	out := DedupOrders(in)
	require.Len(t, out, 1)
	assert.Equal(t, "g", out[0].ID)
}

func TestDedupOrders_LatestTimestampRegardlessOfPosition(t *testing.T) {
	in := []domain.Order{
		orderAt("late", "u1", 30, domain.Num(100)),
		orderAt("other-user", "u2", 0, domain.Num(100)),
		orderAt("early", "u1", 5, domain.Num(100)),
	}
	assert.Equal(t, []string{"late", "other-user"}, ids(DedupOrders(in)))
}

func TestDedupOrders_TieGoesToLaterPosition(t *testing.T) {
	in := []domain.Order{
		orderAt("first", "u1", 0, domain.Num(100)),
		orderAt("second", "u1", 0, domain.Num(100)),
	}
	assert.Equal(t, []string{"second"}, ids(DedupOrders(in)))
}

func TestDedupOrders_KeylessAndDistinctKept(t *testing.T) {
	in := []domain.Order{
		orderAt("nouser-1", "", 0, domain.Num(100)),
		orderAt("nouser-2", "", 1, domain.Num(100)),
		orderAt("a", "u1", 2, domain.Num(100)),
		orderAt("b", "u1", 3, domain.Num(100.001)),
		orderAt("c", "u1", 4, domain.Num(101)),
		orderAt("nototal", "u1", 5, domain.Amount{}),
	}
	// 100 and 100.001 both round to 100.00.
	assert.Equal(t, []string{"nouser-1", "nouser-2", "b", "c", "nototal"}, ids(DedupOrders(in)))
}

func TestDedupOrders_PlatformSeparates(t *testing.T) {
	a := orderAt("a", "u1", 0, domain.Num(100))
	b := orderAt("b", "u1", 1, domain.Num(100))
	b.Platform = domain.PlatformFacebook
	assert.Len(t, DedupOrders([]domain.Order{a, b}), 2)
}

func TestDedupOrders_Idempotent(t *testing.T) {
	in := []domain.Order{
		orderAt("a", "u1", 3, domain.Num(100)),
		orderAt("b", "u2", 1, domain.Num(50)),
		orderAt("c", "u1", 1, domain.Num(100)),
		orderAt("d", "u2", 2, domain.Num(50)),
		orderAt("e", "", 0, domain.Num(1)),
	}
	once := DedupOrders(in)
	assert.Equal(t, ids(once), ids(DedupOrders(once)))
	assert.Empty(t, DedupOrders(nil))
}
