package pbtext

// Presence is the per-field bit flag kept by Dynamic messages.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field was assigned (from input or Set).
	PresenceDefaultApplied                      // Get fell back to the declared default.
	PresenceDuplicate                           // A non-repeated field was assigned more than once.
)

// Has reports whether all bits of q are set in p.
func (p Presence) Has(q Presence) bool { return p&q == q }

// PresenceMap maps field paths (JSON Pointer style) to presence flags.
type PresenceMap map[string]Presence

// CollectPresence walks m and records the presence flags of every set field
// under its path. Repeated elements are recorded individually.
func CollectPresence(m Message) PresenceMap {
	pm := PresenceMap{"/": PresenceSeen}
	collectPresenceRecurse(m, rootPath(), pm)
	return pm
}

func collectPresenceRecurse(m Message, cur PathRef, pm PresenceMap) {
	if m == nil {
		return
	}
	dm, _ := m.(*Dynamic)
	for _, fd := range m.Descriptor().Fields {
		p := cur.Field(fd.Name)
		if fd.IsRepeated() {
			for i := 0; i < m.Len(fd); i++ {
				ip := p.Index(i)
				pm[ip.Pointer()] |= PresenceSeen
				if fd.Kind == KindMessage {
					collectPresenceRecurse(m.Index(fd, i).Message(), ip, pm)
				}
			}
			continue
		}
		if !m.Has(fd) {
			continue
		}
		flags := PresenceSeen
		if dm != nil {
			flags = dm.Presence(fd)
		}
		pm[p.Pointer()] |= flags
		if fd.Kind == KindMessage {
			collectPresenceRecurse(m.Get(fd).Message(), p, pm)
		}
	}
}
