package impl

import (
	"fmt"
	"math/rand"
	"strings"

	interf "github.com/barentsen/fetchmon/interfaces"
)

// InitDemo creates the following test files:
//
//  + over 100 small test files
//     Name: small-test-file-%d.dat
//     Data: text == filename
//  + 4 MB big test file (4*1024*1024 + 1 byte)
//     Name: big-test-file-4.dat
//     Data: random bytes (deterministic, seed 1337)
//
func InitDemo(s interf.Service) error {

	// first, update file index
	err := s.Update()
	if err != nil {
		panic(err)
	}

	// create over 100 small test files for Files() tests (if not exist)
	for i := 1; i < 102; i++ {
		name := fmt.Sprintf("small-test-file-%d.dat", i)
		_, err := s.Files().ByName(name)
		if err != nil {
			_, err := s.Save(name, strings.NewReader(name), 0)
			if err != nil {
				return err
			}
		}
	}

	// create big random test file
	rnd := rand.New(rand.NewSource(1337))

	name := "big-test-file-4.dat"
	size := 4*1024*1024 + 1
	_, err = s.Files().ByName(name)
	if err != nil {
		_, err := s.Save(name, rnd, int64(size))
		if err != nil {
			return err
		}
	}

	// final update
	err = s.Update()
	if err != nil {
		panic(err)
	}
	return nil
}
