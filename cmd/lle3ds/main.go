// Command lle3ds boots a Nintendo 3DS boot9/boot11 image pair against the
// emulated hardware in package system, running until interrupted or until
// the known OTP-verification-failed checkpoint is reached.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nine11/lle3ds/system"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <boot9> <boot11> <otp> <nand> [sd] [cartridge]\n", os.Args[0])
	os.Exit(1)
}

func readFile(path string) []byte {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("lle3ds: failed to open %s: %v", path, err)
	}
	return b
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 5 || len(os.Args) > 7 {
		usage()
	}

	boot9 := readFile(os.Args[1])
	boot11 := readFile(os.Args[2])
	otp := readFile(os.Args[3])
	nand := readFile(os.Args[4])

	var sdPath, cartPath string
	var sd, cart []byte
	if len(os.Args) > 5 {
		sdPath = os.Args[5]
		sd = readFile(sdPath)
	}
	if len(os.Args) > 6 {
		cartPath = os.Args[6]
		cart = readFile(cartPath)
	}

	m, err := system.New(boot9, boot11, otp, nand, sd, cart)
	if err != nil {
		log.Fatalf("lle3ds: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	exitCode := run(m, stop)

	persist(os.Args[4], nand)
	if sdPath != "" {
		persist(sdPath, sd)
	}

	os.Exit(exitCode)
}

// run drives the machine one tick at a time until asked to stop or until
// boot9's OTP verification failure checkpoint is reached (spec.md §6).
func run(m *system.Machine, stop chan os.Signal) int {
	for {
		select {
		case <-stop:
			return 0
		default:
		}

		m.Tick()

		if m.PC9() == system.OTPVerificationFailedPC {
			log.Printf("lle3ds: OTP verification failed (ARM9 PC %#x)", m.PC9())
			return 1
		}
	}
}

// persist writes a mutated NAND/SD image back to disk (spec.md §6: "NAND
// and SD images are mutated in place").
func persist(path string, data []byte) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("lle3ds: failed to write back %s: %v", path, err)
	}
}
