package studio

// ModelOption is one selectable video model and the frame sizes it accepts.
type ModelOption struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Sizes []string `json:"sizes"`
}

var ModelOptions = []ModelOption{
	{ID: "sora-2", Name: "Sora 2", Sizes: []string{"1280x720", "720x1280"}},
	{ID: "sora-2-pro", Name: "Sora 2 Pro", Sizes: []string{"1280x720", "720x1280", "1792x1024", "1024x1792"}},
}

var SecondsOptions = []string{"4", "8", "12"}

func ValidModel(id string) bool {
	for _, m := range ModelOptions {
		if m.ID == id {
			return true
		}
	}
	return false
}

func ValidSize(model, size string) bool {
	for _, m := range ModelOptions {
		if m.ID != model {
			continue
		}
		for _, s := range m.Sizes {
			if s == size {
				return true
			}
		}
	}
	return false
}

func ValidSeconds(seconds string) bool {
	for _, s := range SecondsOptions {
		if s == seconds {
			return true
		}
	}
	return false
}
