package store

import (
	"crypto/rand"
	"fmt"
)

const (
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idHashLength   = 6
	idMaxAttempts  = 20

	TaskIDPrefix       = "tk"
	InitiativeIDPrefix = "in"
	CriterionIDPrefix  = "ac"
	criterionIDLength  = 4
)

// GenerateID returns a new id of the form prefix-xxxxxx.
// It retries on collisions using the provided exists function.
func GenerateID(prefix string, exists func(string) (bool, error)) (string, error) {
	return generateID(prefix, idHashLength, exists)
}

// GenerateTaskID returns a new task id using the tk- prefix.
func GenerateTaskID(exists func(string) (bool, error)) (string, error) {
	return GenerateID(TaskIDPrefix, exists)
}

// GenerateInitiativeID returns a new initiative id using the in- prefix.
func GenerateInitiativeID(exists func(string) (bool, error)) (string, error) {
	return GenerateID(InitiativeIDPrefix, exists)
}

// GenerateCriterionID returns a short checklist item id unique within taken.
func GenerateCriterionID(taken map[string]struct{}) (string, error) {
	return generateID(CriterionIDPrefix, criterionIDLength, func(id string) (bool, error) {
		_, ok := taken[id]
		return ok, nil
	})
}

func generateID(prefix string, length int, exists func(string) (bool, error)) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("id prefix is required")
	}

	for i := 0; i < idMaxAttempts; i++ {
		hash, err := randomBase36(length)
		if err != nil {
			return "", err
		}
		id := fmt.Sprintf("%s-%s", prefix, hash)
		if exists == nil {
			return id, nil
		}
		ok, err := exists(id)
		if err != nil {
			return "", err
		}
		if !ok {
			return id, nil
		}
	}

	return "", fmt.Errorf("unable to generate unique id")
}

func randomBase36(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = base36Alphabet[int(b[i])%len(base36Alphabet)]
	}
	return string(out), nil
}
