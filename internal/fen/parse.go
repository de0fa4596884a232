// Package fen provides the small amount of FEN (Forsyth-Edwards Notation)
// handling the pipeline needs: side to move, ply number and a normalized form
// used as a cache key. Move legality is left to github.com/notnil/chess.
package fen

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidFEN indicates the FEN string is malformed.
var ErrInvalidFEN = errors.New("invalid FEN notation")

// Side-to-move values as they appear in the second FEN field.
const (
	White = "w"
	Black = "b"
)

// Normalize returns a normalized FEN string suitable for cache keys.
// It keeps the position, side to move, castling rights and en passant square,
// ignoring the halfmove clock and fullmove number.
func Normalize(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return "", ErrInvalidFEN
	}

	if !isValidPiecePlacement(parts[0]) {
		return "", ErrInvalidFEN
	}

	if parts[1] != White && parts[1] != Black {
		return "", ErrInvalidFEN
	}

	return strings.Join(parts[:4], " "), nil
}

// Full returns fen with all six fields. EPD positions stop after the en
// passant square; the missing halfmove clock and fullmove number default to
// 0 and 1.
func Full(fen string) (string, error) {
	parts := strings.Fields(fen)
	switch len(parts) {
	case 4:
		parts = append(parts, "0", "1")
	case 5:
		parts = append(parts, "1")
	case 6:
	default:
		return "", ErrInvalidFEN
	}
	return strings.Join(parts, " "), nil
}

// SideToMove returns "w" or "b" from a FEN string.
func SideToMove(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return "", ErrInvalidFEN
	}
	if parts[1] != White && parts[1] != Black {
		return "", ErrInvalidFEN
	}
	return parts[1], nil
}

// Ply returns the half-move number of the position: 0 for the initial
// position with white to move, 1 after white's first move, and so on.
// FENs without a fullmove field are treated as fullmove 1.
func Ply(fen string) (int, error) {
	side, err := SideToMove(fen)
	if err != nil {
		return 0, err
	}

	fullmove := 1
	parts := strings.Fields(fen)
	if len(parts) >= 6 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return 0, ErrInvalidFEN
		}
		fullmove = n
	}

	ply := 2 * (fullmove - 1)
	if side == Black {
		ply++
	}
	return ply, nil
}

// isValidPiecePlacement validates the piece placement part of a FEN.
func isValidPiecePlacement(placement string) bool {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return false
	}

	for _, rank := range ranks {
		squares := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				squares += int(ch - '0')
			case strings.ContainsRune("PNBRQKpnbrqk", ch):
				squares++
			default:
				return false
			}
		}
		if squares != 8 {
			return false
		}
	}

	return true
}
