package studio

import (
	"encoding/json"
	"strings"
)

// SystemGuidance steers the chat model: short conversational replies, video
// parameters deferred to the config surface, and the ready sentinel emitted
// verbatim once the user signals they are done refining.
const SystemGuidance = "You're a casual, friendly creative partner helping someone make a video. " +
	"Keep responses SHORT (1-3 sentences max). Be conversational and natural - like texting a friend. " +
	"Ask simple questions to understand what they want - focus on content, style, mood, and story. " +
	"Don't ask about video duration or resolution (those are in the config panel). " +
	"Don't be formal or overly enthusiastic. Just vibe with their ideas and help them explore what they're going for. " +
	"Never mention technical features unless they ask. " +
	"When analyzing images, describe what you see and how it could be used in a video. " +
	"IMPORTANT: If the user indicates they're happy with the idea and ready to generate the video " +
	`(e.g., "let's do it", "I'm ready", "let's make it", "sounds good"), respond with ONLY this JSON: ` +
	`{"readyToGenerate": true, "message": "Sweet! Hit that Generate Video button and let's make it happen 🎬"}`

// ReadySignal is the structured control signal optionally embedded in an
// assistant reply.
type ReadySignal struct {
	Message string
}

// DetectReadySignal attempts a strict parse of the reply as the ready
// sentinel. Absence of the signal is not an error; any non-conforming text
// is plain conversation.
func DetectReadySignal(reply string) (ReadySignal, bool) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "{") {
		return ReadySignal{}, false
	}
	var probe struct {
		Ready   *bool  `json:"readyToGenerate"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return ReadySignal{}, false
	}
	if probe.Ready == nil || !*probe.Ready {
		return ReadySignal{}, false
	}
	msg := probe.Message
	if msg == "" {
		msg = reply
	}
	return ReadySignal{Message: msg}, true
}
