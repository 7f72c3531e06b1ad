package pages

func (p *Page) collaborator(userID string) (Collaborator, bool) {
	for _, c := range p.Collaborators {
		if c.UserID == userID {
			return c, true
		}
	}
	return Collaborator{}, false
}

// CanRead reports whether actorID owns or collaborates on p.
func CanRead(actorID string, p *Page) bool {
	if actorID == "" {
		return false
	}
	if p.OwnerID == actorID {
		return true
	}
	_, ok := p.collaborator(actorID)
	return ok
}

// CanWrite reports whether actorID may save content to p. The owner
// always may; collaborators depend on policy.
func CanWrite(actorID string, p *Page, policy WritePolicy) bool {
	if actorID == "" {
		return false
	}
	if p.OwnerID == actorID {
		return true
	}
	c, ok := p.collaborator(actorID)
	if !ok {
		return false
	}
	if policy == WriteExplicit {
		return c.CanWrite
	}
	return true
}

// CanManage reports whether actorID may rename, delete, share or publish p.
func CanManage(actorID string, p *Page) bool {
	return actorID != "" && p.OwnerID == actorID
}
