package cmd

import (
	"errors"
	"fmt"

	"fhelotto/domain/commitment"
	"fhelotto/domain/draw"
	"fhelotto/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/urfave/cli.v1"
)

var errNoPreimage = errors.New("no choice triple produces this commitment for the participant")

func parseParticipant(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("participant must be a hex address, got %q", s)
	}
	participant := common.HexToAddress(s)
	if participant == (common.Address{}) {
		return common.Address{}, fmt.Errorf("participant must not be the zero address")
	}
	return participant, nil
}

func parseHash(name, s string) (common.Hash, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	if len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%s must be %d bytes, got %d", name, common.HashLength, len(raw))
	}
	return common.BytesToHash(raw), nil
}

// commitmentFor computes the commitment a participant submits for choices
func commitmentFor(participantHex, choicesText string) (common.Hash, error) {
	participant, err := parseParticipant(participantHex)
	if err != nil {
		return common.Hash{}, err
	}
	choices, err := entities.ParseChoices(choicesText)
	if err != nil {
		return common.Hash{}, err
	}
	return commitment.Commit(choices, participant), nil
}

// recoverChoices searches the eight triples for the preimage of c
func recoverChoices(participantHex, commitmentHex string) (entities.Choices, error) {
	participant, err := parseParticipant(participantHex)
	if err != nil {
		return entities.Choices{}, err
	}
	c, err := parseHash("commitment", commitmentHex)
	if err != nil {
		return entities.Choices{}, err
	}
	choices, ok := commitment.BruteForce(participant, c)
	if !ok {
		return entities.Choices{}, errNoPreimage
	}
	return choices, nil
}

// drawIndex replays the selection from a winner record's public inputs
func drawIndex(blockTime, difficulty uint64, entries int, secretHex string) (int, error) {
	secret, err := parseHash("secret", secretHex)
	if err != nil {
		return 0, err
	}
	return draw.SelectIndex(blockTime, difficulty, entries, secret)
}

func commitAction(c *cli.Context) error {
	participant := c.String(participantFlag.Name)

	if target := c.String(commitmentFlag.Name); target != "" {
		choices, err := recoverChoices(participant, target)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, choices.String())
		return nil
	}

	h, err := commitmentFor(participant, c.String(choicesFlag.Name))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, h.Hex())
	return nil
}

func verifyDrawAction(c *cli.Context) error {
	index, err := drawIndex(
		c.Uint64(blockTimeFlag.Name),
		c.Uint64(difficultyFlag.Name),
		c.Int(entriesFlag.Name),
		c.String(secretFlag.Name),
	)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, index)
	return nil
}
