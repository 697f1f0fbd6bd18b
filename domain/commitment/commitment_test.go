package commitment

import (
	"testing"

	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var participants = []common.Address{
	common.HexToAddress("0x00000000000000000000000000000000000a11ce"),
	common.HexToAddress("0x0000000000000000000000000000000000000b0b"),
	common.HexToAddress("0xc0ffee254729296a45a3885639AC7E10F9d54979"),
	{},
}

func allChoices() []entities.Choices {
	out := make([]entities.Choices, 0, 8)
	for b := uint8(0); b < 8; b++ {
		out = append(out, entities.ChoicesFromBits(b))
	}
	return out
}

func TestCommit_MatchesPackedKeccak(t *testing.T) {
	t.Parallel()

	p := participants[0]
	packed := append([]byte{1, 0, 1}, p.Bytes()...)

	assert.Equal(t, crypto.Keccak256Hash(packed), Commit(entities.Choices{true, false, true}, p))
}

func TestCommit_Deterministic(t *testing.T) {
	t.Parallel()

	for _, p := range participants {
		for _, c := range allChoices() {
			assert.Equal(t, Commit(c, p), Commit(c, p))
		}
	}
}

func TestCommit_BindsParticipantIdentity(t *testing.T) {
	t.Parallel()

	for _, c := range allChoices() {
		for i, p1 := range participants {
			for _, p2 := range participants[i+1:] {
				assert.NotEqual(t, Commit(c, p1), Commit(c, p2),
					"choices %s must commit differently for %s and %s", c, p1.Hex(), p2.Hex())
			}
		}
	}
}

func TestCommit_DistinctChoicesDistinctDigests(t *testing.T) {
	t.Parallel()

	p := participants[1]
	seen := make(map[common.Hash]entities.Choices)
	for _, c := range allChoices() {
		h := Commit(c, p)
		prev, dup := seen[h]
		require.False(t, dup, "%s and %s collide", c, prev)
		seen[h] = c
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	for _, p := range participants {
		for _, c := range allChoices() {
			committed := Commit(c, p)
			assert.True(t, Verify(c, p, committed))

			for i := 0; i < entities.ChoiceCount; i++ {
				assert.False(t, Verify(c.Flip(i), p, committed), "flipping bit %d of %s must fail", i, c)
			}
		}
	}
}

func TestVerify_WrongParticipant(t *testing.T) {
	t.Parallel()

	c := entities.Choices{false, false, false}
	committed := Commit(c, participants[0])

	assert.False(t, Verify(c, participants[1], committed))
}

func TestBruteForce_InvertsEveryCommitment(t *testing.T) {
	t.Parallel()

	for _, p := range participants {
		for _, c := range allChoices() {
			got, ok := BruteForce(p, Commit(c, p))
			require.True(t, ok)
			assert.Equal(t, c, got)
		}
	}

	_, ok := BruteForce(participants[0], common.HexToHash("0x1234"))
	assert.False(t, ok)
}
