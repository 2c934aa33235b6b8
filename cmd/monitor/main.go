package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-tutoring-sync/internal/config"
	"ai-tutoring-sync/pkg/bus"
	"ai-tutoring-sync/pkg/orchestration"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/fatih/color"
)

// Terminal monitor: creates a tutoring session against the backend, attaches
// the synchronizer to its orchestration socket and renders the live session
// view (agent indicator, transitions, health badge, alert toasts).

var agentLabels = map[string]string{
	orchestration.AgentOrchestrator:       "Orchestrator",
	orchestration.AgentCourseCreator:      "Course Creator",
	orchestration.AgentCurriculumDesigner: "Curriculum Designer",
	orchestration.AgentTutor:              "Tutor",
	orchestration.AgentAssessor:           "Assessor",
	orchestration.AgentProgressTracker:    "Progress Tracker",
}

var agentColors = map[string]*color.Color{
	orchestration.AgentOrchestrator:       color.New(color.FgMagenta, color.Bold),
	orchestration.AgentCourseCreator:      color.New(color.FgBlue, color.Bold),
	orchestration.AgentCurriculumDesigner: color.New(color.FgCyan, color.Bold),
	orchestration.AgentTutor:              color.New(color.FgGreen, color.Bold),
	orchestration.AgentAssessor:           color.New(color.FgYellow, color.Bold),
	orchestration.AgentProgressTracker:    color.New(color.FgRed, color.Bold),
}

var statusColors = map[orchestration.HealthStatus]*color.Color{
	orchestration.HealthExcellent:  color.New(color.FgHiGreen),
	orchestration.HealthGood:       color.New(color.FgGreen),
	orchestration.HealthModerate:   color.New(color.FgYellow),
	orchestration.HealthStruggling: color.New(color.FgHiYellow),
	orchestration.HealthCritical:   color.New(color.FgRed, color.Bold),
}

func main() {
	cfg := config.Load()

	userID := envOr("MONITOR_USER", "monitor-cli")
	topic := envOr("MONITOR_TOPIC", "Introduction to Go concurrency")

	sessionID, token, err := createSession(cfg.Backend.ApiURL, userID, topic)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	fmt.Printf("Session %s created for topic %q\n\n", sessionID, topic)

	eventBus := bus.New()
	defer eventBus.Close()

	syncer := orchestration.New(orchestration.Options{
		BaseURL:          cfg.Backend.WsBaseURL,
		Token:            token,
		TransitionWindow: cfg.Sync.TransitionWindow,
		AlertThreshold:   cfg.Sync.AlertThreshold,
		AlertAutoReset:   cfg.Sync.AlertAutoReset,
		Bus:              eventBus,
	})
	defer syncer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumeToasts(ctx, eventBus)

	syncer.Connect(sessionID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			fmt.Println("\nbye")
			return
		case <-ticker.C:
			snap := syncer.Snapshot()
			render(snap)
			if snap.SessionPhase == orchestration.PhaseComplete {
				fmt.Println("\nSession complete.")
				return
			}
		}
	}
}

// render paints one status line for the current snapshot.
func render(snap orchestration.Snapshot) {
	agentColor, ok := agentColors[snap.ActiveAgent]
	if !ok {
		agentColor = color.New(color.FgWhite)
	}
	label, ok := agentLabels[snap.ActiveAgent]
	if !ok {
		label = snap.ActiveAgent
	}

	var line bytes.Buffer

	if snap.IsConnected {
		line.WriteString(color.GreenString("●"))
	} else {
		line.WriteString(color.RedString("○"))
	}
	line.WriteString(" ")
	line.WriteString(agentColor.Sprint(label))

	if snap.ShowTransition && snap.PreviousAgent != "" {
		prev := agentLabels[snap.PreviousAgent]
		if prev == "" {
			prev = snap.PreviousAgent
		}
		line.WriteString(color.HiBlackString("  (%s → %s)", prev, label))
	}

	if snap.IsThinking {
		line.WriteString(color.HiBlackString("  thinking…"))
	}
	if snap.IsSpeaking {
		line.WriteString(color.HiWhiteString("  speaking"))
	}
	if snap.IsProgressCheck {
		line.WriteString(color.CyanString("  [progress check: %s]", snap.ProgressCheckType))
	}

	sc, ok := statusColors[snap.HealthStatus]
	if !ok {
		sc = color.New(color.FgWhite)
	}
	line.WriteString(fmt.Sprintf("  phase=%s  ", snap.SessionPhase))
	line.WriteString(sc.Sprintf("health=%.2f (%s)", snap.HealthScore, snap.HealthStatus))

	if snap.AlertActive {
		line.WriteString(color.New(color.FgHiRed, color.Bold).Sprint("  ⚠ NEEDS ATTENTION"))
	}

	fmt.Printf("\r\033[2K%s", line.String())
}

// consumeToasts prints one line per bus event above the status line.
func consumeToasts(ctx context.Context, b *bus.Bus) {
	handoffs, err := b.Subscribe(ctx, bus.TopicHandoff)
	if err != nil {
		return
	}
	alerts, err := b.Subscribe(ctx, bus.TopicAlert)
	if err != nil {
		return
	}
	conns, err := b.Subscribe(ctx, bus.TopicConnection)
	if err != nil {
		return
	}

	toast := func(msg *message.Message, paint func(string, ...interface{}) string, format string, keys ...string) {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			msg.Ack()
			return
		}
		args := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			args = append(args, payload[k])
		}
		fmt.Printf("\r\033[2K%s\n", paint(format, args...))
		msg.Ack()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-handoffs:
			if !ok {
				return
			}
			toast(msg, color.HiBlueString, "hand-off: %v → %v", "from_agent", "to_agent")
		case msg, ok := <-alerts:
			if !ok {
				return
			}
			toast(msg, color.HiRedString, "alert active=%v score=%v", "active", "score")
		case msg, ok := <-conns:
			if !ok {
				return
			}
			toast(msg, color.HiBlackString, "connection: connected=%v", "connected")
		}
	}
}

func createSession(apiURL, userID, topic string) (sessionID, token string, err error) {
	body, _ := json.Marshal(map[string]string{"user_id": userID, "topic": topic})
	resp, err := http.Post(apiURL+"/api/sessions/", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			SessionID string `json:"session_id"`
			Token     string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", "", err
	}
	if envelope.Data.SessionID == "" {
		return "", "", fmt.Errorf("backend returned no session id (%s)", envelope.Message)
	}
	return envelope.Data.SessionID, envelope.Data.Token, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
