package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"Midnight", "Golden", "Silent", "Technicolor", "Noir",
	"Widescreen", "Analog", "Grainy", "Electric", "Velvet",
	"Neon", "Vintage", "Restless", "Luminous", "Crimson",
}

var nouns = []string{
	"Auteur", "Critic", "Projectionist", "Stuntman", "Director",
	"Gaffer", "Screenwriter", "Cinephile", "Producer", "Editor",
	"Composer", "Extra", "Usher", "Villain", "Cameo",
}

// GenerateNickname creates a random nickname in the format "Adjective_Noun_XXXX"
// where XXXX is a random 4-digit number
func GenerateNickname() (string, error) {
	adjIdx, err := rand.Int(rand.Reader, big.NewInt(int64(len(adjectives))))
	if err != nil {
		return "", fmt.Errorf("failed to generate random adjective: %w", err)
	}

	nounIdx, err := rand.Int(rand.Reader, big.NewInt(int64(len(nouns))))
	if err != nil {
		return "", fmt.Errorf("failed to generate random noun: %w", err)
	}

	suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}

	nickname := fmt.Sprintf("%s_%s_%04d",
		adjectives[adjIdx.Int64()],
		nouns[nounIdx.Int64()],
		suffix.Int64(),
	)

	return nickname, nil
}
