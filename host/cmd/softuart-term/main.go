// softuart-term is a line-oriented terminal for a board running the soft
// serial bridge firmware. Everything typed goes to the board; everything
// the board sends comes back on stdout, optionally as a hex dump. With
// -send the payload goes out once and the tool waits briefly for the echo,
// which makes loopback checks scriptable.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"softuart/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 9600, "Baud rate (ignored for USB CDC)")
	hexdump = flag.Bool("hex", false, "Print received bytes as a hex dump")
	send    = flag.String("send", "", "Send this payload once and exit")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	if *send != "" {
		if err := sendOnce(port, *send); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Connected to %s. Type lines to send; Ctrl-D to exit.\n", *device)
	go pump(port)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if _, err := port.Write(append([]byte(line), '\r', '\n')); err != nil {
			fmt.Fprintf(os.Stderr, "Error: write failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// pump copies everything the board sends to stdout.
func pump(port serial.Port) {
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			emit(buf[:n])
		}
		if err != nil {
			// Reads time out regularly by configuration; keep polling.
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func emit(data []byte) {
	if *hexdump {
		for _, b := range data {
			fmt.Printf("%02x ", b)
		}
		fmt.Println()
		return
	}
	os.Stdout.Write(data)
}

// sendOnce writes the payload and prints whatever comes back within the
// read window.
func sendOnce(port serial.Port, payload string) error {
	if _, err := port.Write([]byte(payload)); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	deadline := time.Now().Add(time.Second)
	buf := make([]byte, 256)
	for time.Now().Before(deadline) {
		n, _ := port.Read(buf)
		if n > 0 {
			emit(buf[:n])
		}
	}
	return nil
}
