package netmode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"schedule_controller/internal/logger"

	"golang.org/x/net/dns/dnsmessage"
)

const dnsTTL = 60

// CaptiveDNS answers every A query with one address so that any hostname a
// client tries lands on the setup portal. Other query types get an empty
// NoError answer.
type CaptiveDNS struct {
	addr string
	log  *logger.Logger

	mu   sync.Mutex
	conn net.PacketConn
}

// NewCaptiveDNS listens on addr (for example ":53") once started.
func NewCaptiveDNS(addr string, log *logger.Logger) *CaptiveDNS {
	return &CaptiveDNS{addr: addr, log: log}
}

// Start binds the UDP socket and serves until ctx is done.
func (d *CaptiveDNS) Start(ctx context.Context, ip net.IP) error {
	ip4 := ip.To4()
	if ip4 == nil {
		return fmt.Errorf("captive dns: %v is not an IPv4 address", ip)
	}
	conn, err := net.ListenPacket("udp", d.addr)
	if err != nil {
		return fmt.Errorf("captive dns listen %s: %w", d.addr, err)
	}
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go d.serve(conn, [4]byte(ip4))
	return nil
}

// LocalAddr is the bound address, nil before Start.
func (d *CaptiveDNS) LocalAddr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	return d.conn.LocalAddr()
}

func (d *CaptiveDNS) serve(conn net.PacketConn, ip [4]byte) {
	buf := make([]byte, 512)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				d.log.Warnw("captive_dns_read_failed", "err", err)
			}
			return
		}
		resp, err := answer(buf[:n], ip)
		if err != nil {
			d.log.Debugw("captive_dns_bad_query", "peer", peer, "err", err)
			continue
		}
		if _, err := conn.WriteTo(resp, peer); err != nil {
			d.log.Debugw("captive_dns_write_failed", "peer", peer, "err", err)
		}
	}
}

// answer builds the reply to one query packet.
func answer(query []byte, ip [4]byte) ([]byte, error) {
	var p dnsmessage.Parser
	hdr, err := p.Start(query)
	if err != nil {
		return nil, err
	}
	questions, err := p.AllQuestions()
	if err != nil {
		return nil, err
	}

	b := dnsmessage.NewBuilder(make([]byte, 0, 512), dnsmessage.Header{
		ID:                 hdr.ID,
		Response:           true,
		OpCode:             hdr.OpCode,
		Authoritative:      true,
		RecursionDesired:   hdr.RecursionDesired,
		RecursionAvailable: false,
		RCode:              dnsmessage.RCodeSuccess,
	})
	b.EnableCompression()

	if err := b.StartQuestions(); err != nil {
		return nil, err
	}
	for _, q := range questions {
		if err := b.Question(q); err != nil {
			return nil, err
		}
	}

	if err := b.StartAnswers(); err != nil {
		return nil, err
	}
	for _, q := range questions {
		if q.Type != dnsmessage.TypeA || q.Class != dnsmessage.ClassINET {
			continue
		}
		rh := dnsmessage.ResourceHeader{Name: q.Name, Type: dnsmessage.TypeA, Class: dnsmessage.ClassINET, TTL: dnsTTL}
		if err := b.AResource(rh, dnsmessage.AResource{A: ip}); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
