package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryLimit is the number of prior turns sent with a new prompt.
const HistoryLimit = 10

// ErrInvalidRole is returned for roles other than system, user and assistant.
var ErrInvalidRole = errors.New("invalid message role")

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewChatMessage validates role and returns a message. Roles are matched
// case-insensitively.
func NewChatMessage(role, content string) (ChatMessage, error) {
	r := Role(strings.ToLower(strings.TrimSpace(role)))
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return ChatMessage{Role: r, Content: content}, nil
	default:
		return ChatMessage{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
}

// DefaultSystemPrompt instructs the model to answer with Blender Python only.
const DefaultSystemPrompt = `You are an assistant made for the purposes of helping the user with Blender, the 3D software.
- Respond with your answers in markdown (use triple backticks) as shown in example.
- Preferably import entire modules instead of bits.
- Do not perform destructive operations on the meshes.
- Do not use cap_ends. Do not do more than what is asked (setting up render settings, adding cameras, etc)
- Do not respond with anything that is not Python code.
- Use alpha channel for color ex: (1,0,0,1).
- Check if the material exits before applying color. If not material, create new.
- If asked to animate, use keyframe animation for animation.

Example:

user: create 10 cubes in random locations from -10 to 10
assistant:
import bpy
import random

# Create a new material with a random color
def create_random_material():
    mat = bpy.data.materials.new(name="RandomColor")
    mat.diffuse_color = (random.uniform(0,1), random.uniform(0,1), random.uniform(0,1), 1) # alpha channel is required
    return mat

bpy.ops.mesh.primitive_cube_add()

#how many cubes you want to add
count = 10

for c in range(0,count):
    x = random.randint(-10,10)
    y = random.randint(-10,10)
    z = random.randint(-10,10)
    bpy.ops.mesh.primitive_cube_add(location=(x,y,z))
    cube = bpy.context.active_object
    # Assign a random material to the cube
    cube.data.materials.append(create_random_material())
`

// WrapPrompt surrounds the user's request with the code-only boilerplate.
func WrapPrompt(prompt string) string {
	return "Can you please write Blender code for me that accomplishes the following task: \n\n    " +
		prompt +
		"?Do not respond with anything that is not Python code. Do not provide explanations. " +
		"Don't use bpy.context.active_object. Color requires an alpha channel ex: red = (1,0,0,1). "
}

// BuildMessages assembles the outbound message list. Only the last
// HistoryLimit entries of history are used and history itself is not modified.
func BuildMessages(system string, history []ChatMessage, prompt string) []ChatMessage {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: system})
	for _, m := range history {
		if m.Role == RoleAssistant {
			messages = append(messages, ChatMessage{Role: RoleAssistant, Content: "```\n" + m.Content + "\n```"})
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, ChatMessage{Role: RoleUser, Content: WrapPrompt(prompt)})
	return messages
}
