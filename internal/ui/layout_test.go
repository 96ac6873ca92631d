package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/epaper/internal/model"
)

func TestLayout_ContentHeight(t *testing.T) {
	if got := NewLayout(80, 24).ContentHeight(); got != 22 {
		t.Errorf("Expected 22, got %d", got)
	}
	if got := NewLayout(80, 1).ContentHeight(); got != 0 {
		t.Errorf("Expected clamp to 0, got %d", got)
	}
}

func TestLayout_BarsSpanWidth(t *testing.T) {
	l := NewLayout(60, 20)

	header := l.RenderHeader("E-Paper", "3 pages")
	if w := lipgloss.Width(header); w != 60 {
		t.Errorf("Expected header width 60, got %d", w)
	}

	bar := l.RenderStatusBar("q quit", nil)
	if w := lipgloss.Width(bar); w != 60 {
		t.Errorf("Expected status bar width 60, got %d", w)
	}
}

func TestLayout_NotificationReplacesHints(t *testing.T) {
	l := NewLayout(60, 20)
	note := &model.Notification{Level: model.LevelSuccess, Message: "Email sent successfully!", CreatedAt: time.Now()}

	bar := l.RenderStatusBar("q quit", note)
	if !strings.Contains(bar, "Email sent successfully!") {
		t.Error("Expected notification text in status bar")
	}
	if strings.Contains(bar, "q quit") {
		t.Error("Expected hints hidden while a notification shows")
	}
}
