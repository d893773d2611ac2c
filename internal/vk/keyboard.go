package vk

import "github.com/SevereCloud/vksdk/v2/object"

// commandKeyboard builds the one-time keyboard with the four bot commands.
// Labels are the exact command strings the handler matches on.
func commandKeyboard() string {
	keyboard := object.NewMessagesKeyboard(true)
	keyboard.AddRow()
	keyboard.AddTextButton("Следующий", "", "primary")
	keyboard.AddTextButton("В избранное", "", "positive")
	keyboard.AddTextButton("В черный список", "", "negative")
	keyboard.AddRow()
	keyboard.AddTextButton("Список избранных", "", "secondary")
	return keyboard.ToJSON()
}
