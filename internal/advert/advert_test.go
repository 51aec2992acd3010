package advert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkrato/battleship-server/internal/messaging"
	"github.com/mkrato/battleship-server/internal/messaging/membus"
	"github.com/mkrato/battleship-server/internal/protocol"
	"github.com/mkrato/battleship-server/internal/testutil"
)

type AdvertSuite struct {
	suite.Suite
	bus *membus.Bus
}

func TestAdvertSuite(t *testing.T) {
	suite.Run(t, new(AdvertSuite))
}

func (s *AdvertSuite) SetupTest() {
	s.bus = membus.New()
}

func (s *AdvertSuite) TearDownTest() {
	_ = s.bus.Close()
}

func (s *AdvertSuite) collect(subject string) chan string {
	ch := make(chan string, 16)
	_, err := s.bus.Subscribe(subject, func(msg messaging.Message) {
		ch <- string(msg.Data)
	})
	s.Require().NoError(err)
	return ch
}

func (s *AdvertSuite) TestAnnouncesPeriodically() {
	adverts := s.collect(protocol.SubjectAdvert)

	a := New("srv", s.bus, 10*time.Millisecond, testutil.NopLogger())
	a.Start()
	defer a.Stop()

	// Immediate announcement plus at least one tick
	for i := 0; i < 2; i++ {
		select {
		case name := <-adverts:
			s.Equal("srv", name)
		case <-time.After(time.Second):
			s.FailNow("timed out waiting for advert")
		}
	}
}

func (s *AdvertSuite) TestStopAnnouncesShutdown() {
	stops := s.collect(protocol.SubjectStop)

	a := New("srv", s.bus, time.Hour, testutil.NopLogger())
	a.Start()
	a.Stop()

	select {
	case name := <-stops:
		s.Equal("srv", name)
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for stop announcement")
	}

	// Stop is idempotent and announces only once
	a.Stop()
	select {
	case <-stops:
		s.FailNow("unexpected second stop announcement")
	case <-time.After(50 * time.Millisecond):
	}
}
