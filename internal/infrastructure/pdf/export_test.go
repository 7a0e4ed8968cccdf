package pdf

// Money expone el formato de importes para los tests.
var Money = money
