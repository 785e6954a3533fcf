package screening

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var birth = time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC)

func known(id, no, name string, b time.Time, addr string) KnownBeneficiary {
	return KnownBeneficiary{
		BeneficiaryID: id,
		BeneficiaryNo: no,
		FullName:      name,
		BirthDate:     b,
		Address:       addr,
	}
}

func TestScreen_ExactMatchSurfaces(t *testing.T) {
	s := NewScreener(0.75, zap.NewNop())

	matches, blacklisted := s.Screen(
		Candidate{FullName: "Maria Santos Cruz", BirthDate: birth, AddressTokens: []string{"purok", "4", "bagong", "silang"}},
		[]KnownBeneficiary{
			known("ben-1", "B-0001", "Maria Santos Cruz", birth, "purok 4 bagong silang"),
			known("ben-2", "B-0002", "Jose Rizal Mercado", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), "poblacion east"),
		},
	)

	require.Len(t, matches, 1)
	assert.Equal(t, "ben-1", matches[0].BeneficiaryID)
	assert.InDelta(t, 1.0, matches[0].Confidence, 1e-9)
	assert.False(t, blacklisted)
}

func TestScreen_NearNameSameBirthDate(t *testing.T) {
	s := NewScreener(0.75, zap.NewNop())

	// one-letter typo in the surname, same birth date and address
	matches, _ := s.Screen(
		Candidate{FullName: "Maria Santos Crus", BirthDate: birth, AddressTokens: []string{"purok", "4", "bagong", "silang"}},
		[]KnownBeneficiary{
			known("ben-1", "B-0001", "Maria Santos Cruz", birth, "purok 4 bagong silang"),
		},
	)

	require.Len(t, matches, 1)
	assert.Greater(t, matches[0].Confidence, 0.9)
}

func TestScreen_UnrelatedPersonBelowFloor(t *testing.T) {
	s := NewScreener(0.75, zap.NewNop())

	matches, _ := s.Screen(
		Candidate{FullName: "Pedro Penduko", BirthDate: time.Date(1999, 2, 3, 0, 0, 0, 0, time.UTC)},
		[]KnownBeneficiary{
			known("ben-1", "B-0001", "Maria Santos Cruz", birth, "purok 4 bagong silang"),
		},
	)

	assert.Empty(t, matches)
}

func TestScreen_ArchivedRecordsSkipped(t *testing.T) {
	s := NewScreener(0.75, zap.NewNop())

	archived := known("ben-1", "B-0001", "Maria Santos Cruz", birth, "purok 4")
	archived.Archived = true

	matches, _ := s.Screen(
		Candidate{FullName: "Maria Santos Cruz", BirthDate: birth, AddressTokens: []string{"purok", "4"}},
		[]KnownBeneficiary{archived},
	)

	assert.Empty(t, matches)
}

func TestScreen_BlacklistBitPropagates(t *testing.T) {
	s := NewScreener(0.75, zap.NewNop())

	flagged := known("ben-1", "B-0001", "Maria Santos Cruz", birth, "purok 4 bagong silang")
	flagged.HasActiveBlacklist = true

	matches, blacklisted := s.Screen(
		Candidate{FullName: "Maria Santos Cruz", BirthDate: birth, AddressTokens: []string{"purok", "4", "bagong", "silang"}},
		[]KnownBeneficiary{flagged},
	)

	require.Len(t, matches, 1)
	assert.True(t, blacklisted)
}

func TestScreen_OrderedByConfidence(t *testing.T) {
	s := NewScreener(0.6, zap.NewNop())

	matches, _ := s.Screen(
		Candidate{FullName: "Maria Santos Cruz", BirthDate: birth, AddressTokens: []string{"purok", "4"}},
		[]KnownBeneficiary{
			known("ben-2", "B-0002", "Mario Santos Cruz", birth, "zone 7"),
			known("ben-1", "B-0001", "Maria Santos Cruz", birth, "purok 4"),
		},
	)

	require.Len(t, matches, 2)
	assert.Equal(t, "ben-1", matches[0].BeneficiaryID)
	assert.GreaterOrEqual(t, matches[0].Confidence, matches[1].Confidence)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "maria santos cruz", normalizeName("  MARIA   Santos-Cruz. "))
	assert.Equal(t, "o brien", normalizeName("O'Brien"))
	assert.Equal(t, "", normalizeName("..."))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("cruz", "cruz"))
	assert.Equal(t, 1, levenshtein("cruz", "crus"))
	assert.Equal(t, 4, levenshtein("", "cruz"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}

func TestTokenOverlap(t *testing.T) {
	assert.Equal(t, 1.0, tokenOverlap([]string{"purok", "4"}, []string{"purok", "4"}))
	assert.Equal(t, 0.0, tokenOverlap([]string{"purok"}, []string{"zone"}))
	assert.Equal(t, 0.0, tokenOverlap(nil, []string{"zone"}))
	assert.InDelta(t, 1.0/3.0, tokenOverlap([]string{"purok", "4"}, []string{"purok", "7"}), 1e-9)
}
