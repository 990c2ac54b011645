package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
)

type styles struct {
	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
	label lipgloss.Style
	dim   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, ok: plain, warn: plain, fail: plain, label: plain, dim: plain}
	}
	return styles{
		title: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s styles) verdict(v service.Verdict) string {
	text := fmt.Sprintf("%-10s", v)
	switch v {
	case service.Complete:
		return s.ok.Render(text)
	case service.NeedsMore:
		return s.warn.Render(text)
	default:
		return s.fail.Render(text)
	}
}

func (s styles) status(general protocol.GeneralStatus) string {
	text := fmt.Sprintf("0x%02X (%s)", uint8(general), general)
	if general == protocol.StatusSuccess {
		return s.ok.Render(text)
	}
	return s.fail.Render(text)
}
