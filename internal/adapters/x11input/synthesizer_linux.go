//go:build linux

package x11input

import (
	"fmt"
	"sync"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
)

// Synthesizer drives the X11 pointer through the XTEST extension.
type Synthesizer struct {
	mu      sync.Mutex
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window
}

var _ autoclicker.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer() (*Synthesizer, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XTEST extension unavailable: %w", err)
	}
	return &Synthesizer{xu: xu, conn: conn, rootWin: xu.RootWin()}, nil
}

func buttonIndex(button autoclicker.Button) (byte, error) {
	switch button {
	case autoclicker.ButtonLeft:
		return byte(xproto.ButtonIndex1), nil
	case autoclicker.ButtonMiddle:
		return byte(xproto.ButtonIndex2), nil
	case autoclicker.ButtonRight:
		return byte(xproto.ButtonIndex3), nil
	default:
		return 0, fmt.Errorf("unsupported button %q", button)
	}
}

func (s *Synthesizer) MoveTo(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := xproto.WarpPointerChecked(
		s.conn,
		xproto.WindowNone,
		s.rootWin,
		0,
		0,
		0,
		0,
		clampToInt16(x),
		clampToInt16(y),
	).Check(); err != nil {
		return err
	}
	s.conn.Sync()
	return nil
}

func (s *Synthesizer) Click(button autoclicker.Button, count int) error {
	detail, err := buttonIndex(button)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < count; i++ {
		for _, eventType := range []byte{xproto.ButtonPress, xproto.ButtonRelease} {
			if err := xtest.FakeInputChecked(
				s.conn,
				eventType,
				detail,
				xproto.TimeCurrentTime,
				s.rootWin,
				0,
				0,
				0,
			).Check(); err != nil {
				return err
			}
		}
	}
	s.conn.Sync()
	return nil
}

func (s *Synthesizer) CurrentPosition() (autoclicker.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, err := xproto.QueryPointer(s.conn, s.rootWin).Reply()
	if err != nil {
		return autoclicker.Point{}, err
	}
	return autoclicker.Point{X: int(query.RootX), Y: int(query.RootY)}, nil
}

func (s *Synthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	return nil
}
