package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/costcore/internal/model"
)

func TestResolveBundle_SubtotalOnNonAnchor(t *testing.T) {
	a := part("A", 1, "10", "5", "")
	b := part("B", 2, "", "", "50")

	res := Default().ResolveBundle(withBundle(1, a, b))
	require.Len(t, res, 2)

	assert.Equal(t, "A", res[0].ItemID)
	assert.Equal(t, model.StatusOK, res[0].Status)
	assert.True(t, a.Calculable)

	assert.Equal(t, "B", res[1].ItemID)
	assert.Equal(t, model.StatusBlocked, res[1].Status)
	assert.Equal(t, []Code{CodeBundleMultiAnchor}, res[1].Codes)
}

func TestResolveBundle_AnchorPriority(t *testing.T) {
	sysOnly := part("sys", 1, "2", "5", "")
	full := part("full", 2, "2", "5", "10")
	zero := part("zero", 3, "", "", "0")

	res := Default().ResolveBundle(withBundle(7, sysOnly, full, zero))

	assert.True(t, full.Calculable)
	assert.False(t, sysOnly.Calculable)
	assert.False(t, zero.Calculable)
	for _, r := range res {
		assert.Equal(t, model.StatusOK, r.Status, r.ItemID)
	}
}

func TestResolveBundle_FirstRowWinsTies(t *testing.T) {
	// input order differs from row order
	late := part("late", 9, "1", "1", "")
	early := part("early", 4, "3", "3", "")

	res := Default().ResolveBundle(withBundle(1, late, early))

	assert.True(t, early.Calculable)
	assert.False(t, late.Calculable)
	assert.Equal(t, "late", res[0].ItemID)
	assert.Equal(t, "early", res[1].ItemID)
}

func TestResolveBundle_ManualOnlyAnchor(t *testing.T) {
	a := part("a", 1, "4", "", "")
	b := part("b", 2, "", "", "80")

	res := Default().ResolveBundle(withBundle(1, a, b))

	assert.True(t, b.Calculable)
	assert.False(t, a.Calculable)
	assert.Equal(t, model.StatusWarning, res[1].Status)
	assert.Equal(t, model.StatusOK, res[0].Status)
}

func TestResolveBundle_NoAnchor(t *testing.T) {
	a := part("a", 1, "4", "", "")
	b := part("b", 2, "", "", "")

	res := Default().ResolveBundle(withBundle(1, a, b))
	for _, r := range res {
		assert.Equal(t, model.StatusBlocked, r.Status)
		assert.Equal(t, []Code{CodeMissingAll}, r.Codes)
	}
}

func TestResolveBundle_NegativeNonAnchor(t *testing.T) {
	a := part("a", 1, "1", "10", "10")
	b := part("b", 2, "-1", "", "")

	res := Default().ResolveBundle(withBundle(1, a, b))
	assert.Equal(t, model.StatusOK, res[0].Status)
	assert.Equal(t, model.StatusBlocked, res[1].Status)
	assert.Equal(t, []Code{CodeNegativeValue}, res[1].Codes)
}

func TestResolveBundle_TinySubtotalCountsAsZero(t *testing.T) {
	a := part("a", 1, "1", "10", "")
	b := part("b", 2, "", "", "0.000000001")

	res := Default().ResolveBundle(withBundle(1, a, b))
	assert.Equal(t, model.StatusOK, res[1].Status)
	assert.False(t, b.Calculable)
}

func TestResolveBundle_AnchorIsValidated(t *testing.T) {
	a := part("a", 1, "10", "5", "70")
	b := part("b", 2, "", "", "")

	res := Default().ResolveBundle(withBundle(1, a, b))
	assert.Equal(t, model.StatusBlocked, res[0].Status)
	assert.Equal(t, []Code{CodeRuleInconsistent}, res[0].Codes)
	assert.True(t, a.Calculable)
}

// Every bundle with an anchor ends with exactly one calculable member.
func TestResolveBundle_ExactlyOneCalculable(t *testing.T) {
	type row struct{ qty, price, subtotal string }
	shapes := []row{
		{"", "", ""},
		{"2", "", ""},
		{"2", "3", ""},
		{"2", "3", "6"},
		{"", "", "6"},
		{"", "", "0"},
	}

	v := Default()
	for i := range shapes {
		for j := range shapes {
			for k := range shapes {
				name := fmt.Sprintf("%d-%d-%d", i, j, k)
				t.Run(name, func(t *testing.T) {
					var members []*model.Item
					for n, s := range []row{shapes[i], shapes[j], shapes[k]} {
						it := part(fmt.Sprintf("r%d", n), n+1, s.qty, s.price, s.subtotal)
						it.Calculable = false
						members = append(members, it)
					}
					res := v.ResolveBundle(withBundle(1, members...))

					if res[0].HasCode(CodeMissingAll) && res[1].HasCode(CodeMissingAll) && res[2].HasCode(CodeMissingAll) {
						return
					}
					calc := 0
					for _, it := range members {
						if it.Calculable {
							calc++
						}
					}
					assert.Equal(t, 1, calc)
				})
			}
		}
	}
}

func TestValidateParts(t *testing.T) {
	single := part("single", 1, "1", "2", "2")
	single.Calculable = false
	loneKey := withBundle(5, part("lone", 2, "", "", "9"))[0]
	loneKey.Calculable = false
	b1 := withBundle(1, part("b1", 3, "2", "2", ""), part("b2", 4, "", "", ""))

	items := []*model.Item{single, b1[0], loneKey, b1[1]}
	res := Default().ValidateParts(items)

	require.Len(t, res, 4)
	assert.Equal(t, []string{"single", "b1", "lone", "b2"}, []string{res[0].ItemID, res[1].ItemID, res[2].ItemID, res[3].ItemID})

	assert.True(t, single.Calculable)
	assert.Equal(t, model.StatusOK, res[0].Status)

	assert.True(t, loneKey.Calculable)
	assert.Equal(t, model.StatusWarning, res[2].Status)

	assert.True(t, b1[0].Calculable)
	assert.False(t, b1[1].Calculable)
}
