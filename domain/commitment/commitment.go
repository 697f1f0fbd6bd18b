// Package commitment binds a participant's private choices to their address
// with a keccak-256 digest.
//
// This is a commitment, not encryption. With only eight possible triples per
// address, anyone who knows the participant can recover the choices by trying
// them all (see BruteForce). It hides nothing from a determined observer; it
// only lets the winner's reveal be checked later.
package commitment

import (
	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Commit returns keccak256(b0 || b1 || b2 || participant), each flag packed as
// a single 0x00/0x01 byte, matching Solidity's abi.encodePacked layout
func Commit(choices entities.Choices, participant common.Address) common.Hash {
	return crypto.Keccak256Hash(encodePacked(choices, participant))
}

// Verify recomputes the commitment and compares it with c
func Verify(choices entities.Choices, participant common.Address, c common.Hash) bool {
	return Commit(choices, participant) == c
}

// BruteForce recovers the choices behind c by enumerating every triple
func BruteForce(participant common.Address, c common.Hash) (entities.Choices, bool) {
	for b := 0; b < 1<<entities.ChoiceCount; b++ {
		choices := entities.ChoicesFromBits(uint8(b))
		if Verify(choices, participant, c) {
			return choices, true
		}
	}
	return entities.Choices{}, false
}

func encodePacked(choices entities.Choices, participant common.Address) []byte {
	buf := make([]byte, 0, entities.ChoiceCount+common.AddressLength)
	for _, v := range choices {
		if v {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return append(buf, participant.Bytes()...)
}
