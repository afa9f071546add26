package deadline

import "strings"

// cancelledSentinel is what the selector dialogs print when the user backs
// out without choosing anything.
const cancelledSentinel = "Action was cancelled by user"

// SelectMachineList opens the machine list picker seeded with the current
// value. The second return is false when the user cancelled, in which case
// the current value comes back unchanged.
func (c *Client) SelectMachineList(current string) (string, bool, error) {
	return c.selectDialog("-selectmachinelist", current)
}

// SelectLimitGroups opens the limit group picker.
func (c *Client) SelectLimitGroups(current string) (string, bool, error) {
	return c.selectDialog("-selectlimitgroups", current)
}

// SelectDependencies opens the job dependency picker.
func (c *Client) SelectDependencies(current string) (string, bool, error) {
	return c.selectDialog("-selectdependencies", current)
}

func (c *Client) selectDialog(flag, current string) (string, bool, error) {
	output, err := c.Run([]string{flag, current}, RunOptions{ShowWindow: true, ArgFile: true, Background: true})
	if err != nil {
		return current, false, err
	}
	output = strings.ReplaceAll(output, "\r", "")
	output = strings.ReplaceAll(output, "\n", "")
	if output == cancelledSentinel {
		return current, false, nil
	}
	return output, true, nil
}
