package region

import (
	"errors"
	"fmt"

	"github.com/talgya/hexprovinces/internal/hexgrid"
)

var (
	// ErrMalformedInput marks a construction-order bug in the caller: a seed
	// outside the grid, or a grid position without a tile.
	ErrMalformedInput = errors.New("region: malformed input")
	// ErrResidualUnowned marks a run that left tiles without a region.
	ErrResidualUnowned = errors.New("region: tiles left without a region")
	// ErrDegenerateAdjacency marks a region with no neighbors. Non-fatal.
	ErrDegenerateAdjacency = errors.New("region: region has no neighbors")
	// ErrOwnershipConflict is returned when a tile would change owner.
	ErrOwnershipConflict = errors.New("region: tile already owned by another region")
)

// MalformedInputError describes which position broke the input contract.
type MalformedInputError struct {
	Pos    hexgrid.Position
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("region: malformed input at %v: %s", e.Pos, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// ResidualUnownedError lists the tiles no region claimed, in key order.
type ResidualUnownedError struct {
	Positions []hexgrid.Position
}

func (e *ResidualUnownedError) Error() string {
	if len(e.Positions) == 0 {
		return ErrResidualUnowned.Error()
	}
	return fmt.Sprintf("region: %d tiles left without a region (first at %v)", len(e.Positions), e.Positions[0])
}

func (e *ResidualUnownedError) Unwrap() error { return ErrResidualUnowned }

// DegenerateAdjacencyError names a region without neighbors.
type DegenerateAdjacencyError struct {
	Region string
	Tiles  int
}

func (e *DegenerateAdjacencyError) Error() string {
	return fmt.Sprintf("region: %s (%d tiles) has no neighbors", e.Region, e.Tiles)
}

func (e *DegenerateAdjacencyError) Unwrap() error { return ErrDegenerateAdjacency }
