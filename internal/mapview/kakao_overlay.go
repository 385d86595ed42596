package mapview

import (
	"sync"

	"lunch-roulette/internal/models"
)

// KakaoOverlay records drawing commands for the Kakao Maps JS SDK. The
// browser replays Commands in order on its map instance.
type KakaoOverlay struct {
	mu       sync.Mutex
	style    PathStyle
	commands []Command
}

func NewKakaoOverlay() *KakaoOverlay {
	return &KakaoOverlay{style: DefaultPathStyle}
}

func (o *KakaoOverlay) Center(p models.Coordinates) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// only the latest centre matters
	o.commands = removeKind(o.commands, CommandCenter)
	o.commands = append(o.commands, Command{Kind: CommandCenter, Position: &p})
}

func (o *KakaoOverlay) PlaceMarker(p models.Coordinates) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.commands = removeKind(o.commands, CommandMarker)
	o.commands = append(o.commands, Command{Kind: CommandMarker, Position: &p})
}

func (o *KakaoOverlay) DrawPath(from, to models.Coordinates) {
	o.mu.Lock()
	defer o.mu.Unlock()

	style := o.style
	o.commands = removeKind(o.commands, CommandPath)
	o.commands = append(o.commands, Command{
		Kind:  CommandPath,
		Path:  []models.Coordinates{from, to},
		Style: &style,
	})
}

func (o *KakaoOverlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.commands = removeKind(removeKind(o.commands, CommandMarker), CommandPath)
}

// Commands returns a copy of the recorded commands.
func (o *KakaoOverlay) Commands() []Command {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Command, len(o.commands))
	copy(out, o.commands)
	return out
}

// Restore replaces the recorded commands, e.g. after loading a stored session.
func (o *KakaoOverlay) Restore(cmds []Command) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.commands = append([]Command(nil), cmds...)
}

func removeKind(cmds []Command, kind CommandKind) []Command {
	out := cmds[:0]
	for _, c := range cmds {
		if c.Kind != kind {
			out = append(out, c)
		}
	}
	return out
}
