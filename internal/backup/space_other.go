//go:build !unix

package backup

func (o *Orchestrator) logFreeSpace(path, volume string) {}
