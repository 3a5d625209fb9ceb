// Command dopd-client sends one request to a running dopd daemon and prints
// the reply. It exists for manual testing and scripting.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/dopd-io/dopd/internal/protocol/codec"
	"github.com/dopd-io/dopd/internal/protocol/schema"
)

func main() {
	host := flag.String("host", "127.0.0.1", "Daemon host")
	port := flag.Int("port", 1247, "Daemon port")
	api := flag.String("api", "open", "Operation (open, close, read, write, seek, truncate, unlink)")
	user := flag.String("user", "kory", "Requesting user name")
	proxyUser := flag.String("proxy-user", "rods", "Proxy user name")
	object := flag.String("object", "/tmp/data.obj", "Object path")
	version := flag.Int("version", 430, "Minimum protocol version to announce")
	flag.Parse()

	apiNumber, err := parseAPI(*api)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	reply, err := exchange(*host, *port, &codec.Message{
		MinimumProtocolVersion: int16(*version),
		APINumber:              apiNumber,
		User:                   codec.Identity{Name: *user},
		ProxyUser:              codec.Identity{Name: *proxyUser},
		Payload:                []byte(*object),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("status: %d\n", reply.Status)
	if len(reply.Payload) > 0 {
		fmt.Printf("payload: %s\n", reply.Payload)
	}
	if reply.Status != codec.StatusOK {
		os.Exit(1)
	}
}

func parseAPI(name string) (schema.OperationCode, error) {
	switch name {
	case "open":
		return schema.OperationCodeOpen, nil
	case "close":
		return schema.OperationCodeClose, nil
	case "read":
		return schema.OperationCodeRead, nil
	case "write":
		return schema.OperationCodeWrite, nil
	case "seek":
		return schema.OperationCodeSeek, nil
	case "truncate":
		return schema.OperationCodeTruncate, nil
	case "unlink":
		return schema.OperationCodeUnlink, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", name)
	}
}

func exchange(host string, port int, msg *codec.Message) (*codec.Reply, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := codec.Send(conn, msg); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	reply, err := codec.ReceiveReply(conn)
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}
