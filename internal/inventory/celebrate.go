package inventory

// Messages is the celebration rotation, shown in order and wrapping around.
var Messages = []string{
	"🎉 Another machine joins the team!",
	"🛠️ You're building a powerhouse!",
	"🔧 That one's a beauty. Welcome aboard!",
	"🚀 Let's keep the momentum rolling!",
	"💪 That machine is ready to work!",
}

// celebrate records the current message in out and advances the rotation.
func celebrate(s *State, out *Outcome) {
	n := len(Messages)
	idx := s.CelebrationIndex % n
	if idx < 0 {
		idx += n
	}
	out.Celebration = Messages[idx]
	s.CelebrationIndex = (idx + 1) % n
}
