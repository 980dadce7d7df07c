package analysis

import "fmt"

// buildDetectionPrompt pins the reply contract: a single JSON object with
// pixel-space boxes. Coordinates refer to the page image the model is
// shown, which may be a downscaled copy of the rendered page.
func buildDetectionPrompt(width, height int, hasTarget bool) string {
	var task string
	if hasTarget {
		task = "The first image is a reference pattern. Find every occurrence of that pattern in the second image, which is one page of a document."
	} else {
		task = "Find every visually distinctive symbol, stamp, or mark in the image, which is one page of a document."
	}

	return fmt.Sprintf(`You are a precise visual detection system.

%s

The page image is %d pixels wide and %d pixels tall. Report each match as a bounding box in pixel coordinates of the page image, with (0,0) at the top-left corner.

OUTPUT FORMAT:
Respond with ONLY a JSON object in the following format:

{
  "detections": [
    {"x1": 0, "y1": 0, "x2": 0, "y2": 0, "confidence": 0.0}
  ],
  "summary": "one short sentence describing what was found"
}

Rules:
- x1 < x2 and y1 < y2 for every box; coordinates stay within the image.
- confidence is between 0.0 and 1.0.
- An empty "detections" array is the correct answer when there are no matches.
- Do not include any text outside the JSON object.`, task, width, height)
}
